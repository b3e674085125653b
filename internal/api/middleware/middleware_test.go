package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/brushline/quotedesk/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(secret string, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{JWTAuth(secret)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		p := c.MustGet(PrincipalKey).(models.Principal)
		c.JSON(http.StatusOK, gin.H{"company_id": p.CompanyID, "role": p.Role})
	})
	r.GET("/x", chain...)
	return r
}

func token(t *testing.T, role models.UserRole) string {
	t.Helper()
	tok, _, err := utils.IssueToken("secret", models.Principal{Subject: "ac-1", CompanyID: "co-1", Role: role}, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func TestJWTAuth(t *testing.T) {
	r := newRouter("secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleUser))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"company_id":"co-1","role":"user"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?access_token="+token(t, models.RoleUser), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	r := newRouter("other")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter("secret", RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleAdmin))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequestTimeout(time.Second), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}

func TestRequestLoggerTagsRoute(t *testing.T) {
	l := logrus.New()
	hook := &captureHook{}
	l.AddHook(hook)
	l.SetOutput(io.Discard)

	r := gin.New()
	r.Use(RequestLogger(l))
	r.GET("/quotes/:quote_id", func(c *gin.Context) {
		c.Set("company_id", "co-1")
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodGet, "/quotes/q-9", nil)
	req.Header.Set("X-Request-Id", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-Id"))
	require.Len(t, hook.entries, 1)
	e := hook.entries[0]
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, "q-9", e.Data["quote_id"])
	assert.Equal(t, "co-1", e.Data["company_id"])
	assert.Equal(t, "/quotes/:quote_id", e.Data["path"])
}

type captureHook struct{ entries []*logrus.Entry }

func (h *captureHook) Levels() []logrus.Level { return logrus.AllLevels }
func (h *captureHook) Fire(e *logrus.Entry) error {
	h.entries = append(h.entries, e)
	return nil
}
