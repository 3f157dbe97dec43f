package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Fail writes the error envelope and aborts the handler chain.
func Fail(c *gin.Context, httpStatus int, code string, detail string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"code":   code,
		"detail": detail,
	})
}
