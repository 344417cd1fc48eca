package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"network/api/middleware"
	"network/logger"
	"network/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the services every endpoint works through.
type Handler struct {
	Auth     *services.Authenticator
	Users    *services.UserService
	Posts    *services.PostService
	Feed     *services.FeedService
	Likes    *services.LikeService
	Follows  *services.FollowService
	Comments *services.CommentService
	WS       *services.WSConnManager

	SessionTTL   time.Duration
	CookieSecure bool
}

// contentRequest is the JSON body of post and comment endpoints.
type contentRequest struct {
	Content string `json:"content"`
}

func bindContent(c *gin.Context) (string, bool) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON."})
		return "", false
	}
	return req.Content, true
}

func identity(c *gin.Context) services.Identity {
	who, _ := middleware.CurrentIdentity(c)
	return who
}

func optionalIdentity(c *gin.Context) *services.Identity {
	who, ok := middleware.CurrentIdentity(c)
	if !ok {
		return nil
	}
	return &who
}

// postID parses the :id path parameter. An id that cannot name a post
// gets the same 404 as a missing one.
func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found."})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto status codes. Anything it does not
// recognise is logged and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var (
		verr *services.ValidationError
		perr *services.PermissionError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.As(err, &perr):
		c.String(http.StatusForbidden, perr.Message)
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAuthenticationNeeded):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.L.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
