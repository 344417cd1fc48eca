package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"network/api/handlers"
	"network/api/middleware"
	"network/db"
	"network/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	engine *gin.Engine
	db     *db.Manager
	ws     *services.WSConnManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	m, err := db.OpenSQLite(fmt.Sprintf("file:routes_%s?mode=memory&cache=shared&_fk=1", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	ws := services.NewWSConnManager()
	notifier := services.NewNotifier(services.NewDirectPublisher(ws))
	users := services.NewUserService(m)
	follows := services.NewFollowService(m, users, notifier)
	h := &handlers.Handler{
		Auth:       services.NewAuthenticator(services.NewDBSessionStore(m, time.Hour), users),
		Users:      users,
		Posts:      services.NewPostService(m, notifier),
		Feed:       services.NewFeedService(m, users, follows),
		Likes:      services.NewLikeService(m, notifier),
		Follows:    follows,
		Comments:   services.NewCommentService(m, notifier),
		WS:         ws,
		SessionTTL: time.Hour,
	}
	return &testServer{engine: NewEngine(h, zap.NewNop()), db: m, ws: ws}
}

// do sends a request with an optional session token and JSON body.
func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

// register signs a user up through the form endpoint and returns the
// session token it was given.
func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	rec := s.postForm("/register", url.Values{
		"username":     {username},
		"email":        {username + "@example.com"},
		"password":     {"secret"},
		"confirmation": {"secret"},
	})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	token := sessionCookie(rec)
	require.NotEmpty(t, token)
	return token
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func sessionCookie(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c.Value
		}
	}
	return ""
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// createPost creates a post over HTTP and returns its id.
func (s *testServer) createPost(t *testing.T, token, content string) int64 {
	t.Helper()
	rec := s.do(http.MethodPost, "/posts/create", token, fmt.Sprintf(`{"content":%q}`, content))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode(t, rec)["post"].(map[string]interface{})
	return int64(post["id"].(float64))
}
