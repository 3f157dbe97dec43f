package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/catalogue"
	"github.com/techtribe/studio-api/internal/common"
)

func (h *Handler) ListCatalogue(c *gin.Context) {
	featured, _ := strconv.ParseBool(c.Query("featured"))
	items, err := h.Catalogue.List(c.Request.Context(), catalogue.Filter{
		Category: c.Query("category"),
		Featured: featured,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, items)
}

func (h *Handler) SearchCatalogue(c *gin.Context) {
	items, err := h.Catalogue.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, items)
}

func (h *Handler) GetCatalogueItem(c *gin.Context) {
	it, err := h.Catalogue.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, it)
}

func (h *Handler) CreateCatalogueItem(c *gin.Context) {
	var req catalogue.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	it, err := h.Catalogue.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.Created(c, it)
}

func (h *Handler) UpdateCatalogueItem(c *gin.Context) {
	var req catalogue.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	it, err := h.Catalogue.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, it)
}

func (h *Handler) DeleteCatalogueItem(c *gin.Context) {
	if err := h.Catalogue.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	deleted(c, "Məhsul silindi")
}
