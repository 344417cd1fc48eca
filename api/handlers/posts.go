package handlers

import (
	"net/http"

	"network/api/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreatePost(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}

	post, err := h.Posts.CreatePost(c.Request.Context(), identity(c), content)
	if err != nil {
		respondError(c, err, "Could not create post.")
		return
	}
	middleware.RecordCreated("post")

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created.",
		"post": gin.H{
			"id":        post.ID,
			"author":    post.Author,
			"content":   post.Content,
			"timestamp": post.Timestamp,
			"likes":     post.Likes,
		},
	})
}

// EditPost checks existence and ownership before it looks at the body.
func (h *Handler) EditPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.Posts.GetOwnedPost(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err, "Could not update post.")
		return
	}

	content, ok := bindContent(c)
	if !ok {
		return
	}
	post, err = h.Posts.EditPost(c.Request.Context(), post, content)
	if err != nil {
		respondError(c, err, "Could not update post.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated.", "content": post.Content})
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.Posts.DeletePost(c.Request.Context(), identity(c), id); err != nil {
		respondError(c, err, "Could not delete post.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted."})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	result, err := h.Likes.ToggleLike(c.Request.Context(), identity(c), id)
	if err != nil {
		respondError(c, err, "Could not update like.")
		return
	}
	middleware.RecordToggle("like", result.Liked)
	c.JSON(http.StatusOK, result)
}
