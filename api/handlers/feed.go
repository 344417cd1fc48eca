package handlers

import (
	"net/http"

	"network/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Index(c *gin.Context) {
	page, err := h.Feed.Index(c.Request.Context(), optionalIdentity(c), services.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, err, "Could not load posts.")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) Following(c *gin.Context) {
	page, err := h.Feed.Following(c.Request.Context(), identity(c), services.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, err, "Could not load posts.")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) Profile(c *gin.Context) {
	profile, err := h.Feed.Profile(c.Request.Context(), optionalIdentity(c), c.Param("username"), services.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, err, "Could not load profile.")
		return
	}
	c.JSON(http.StatusOK, profile)
}
