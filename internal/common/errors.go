package common

import (
	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/apperr"
)

const msgInternal = "daxili xəta"

// FailErr renders err through the error taxonomy. Errors outside it become a
// 500 whose detail never leaks the cause.
func FailErr(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	detail := apperr.MessageOf(err)
	if code == apperr.CodeInternal || detail == "" {
		detail = msgInternal
	}
	Fail(c, apperr.HTTPStatus(code), string(code), detail)
}
