package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/lists/:listId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/lists/a", "/lists/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/lists/:listId", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveAuthRejection(t *testing.T) {
	m := New()
	m.ObserveAuthRejection("session", "expired")
	m.ObserveAuthRejection("session", "expired")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authRejections.WithLabelValues("session", "expired")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveAuthRejection("access", "missing")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tasklist_auth_rejections_total{guard="access",reason="missing"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
