package handlers

import (
	"net/http"

	"network/api/middleware"
	"network/services"

	"github.com/gin-gonic/gin"
)

// CreateComment answers anonymous callers itself rather than relying on
// RequireAuth, so the route can stay open.
func (h *Handler) CreateComment(c *gin.Context) {
	who, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondError(c, services.ErrAuthenticationNeeded, "")
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}
	content, ok := bindContent(c)
	if !ok {
		return
	}

	comment, err := h.Comments.CreateComment(c.Request.Context(), who, id, content)
	if err != nil {
		respondError(c, err, "Could not add comment.")
		return
	}
	middleware.RecordCreated("comment")

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Comment added successfully.",
		"author":    comment.Author,
		"content":   comment.Content,
		"timestamp": comment.Timestamp,
	})
}

func (h *Handler) ListComments(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	comments, err := h.Comments.ListComments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Could not load comments.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
