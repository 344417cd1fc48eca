package handlers

import (
	"net/http"

	"network/api/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ToggleFollow(c *gin.Context) {
	result, err := h.Follows.ToggleFollow(c.Request.Context(), identity(c), c.Param("username"))
	if err != nil {
		respondError(c, err, "Could not update follow.")
		return
	}
	middleware.RecordToggle("follow", result.Following)
	c.JSON(http.StatusOK, result)
}
