package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(zap.NewNop()))
	router.Use(TimeoutMiddleware(time.Second))
	return router
}

func TestPanicInHandlerReturns500(t *testing.T) {
	router := newTestRouter()
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, recorder.Body.String())
}

func TestTimeoutMiddlewareSetsDeadline(t *testing.T) {
	router := newTestRouter()

	var hasDeadline bool
	router.GET("/check", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/check", nil))

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.True(t, hasDeadline)
}

func TestExpiredDeadlineIsObservable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryMiddleware(zap.NewNop()))
	router.Use(TimeoutMiddleware(time.Nanosecond))

	router.GET("/slow", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "Request Timeout"})
		case <-time.After(time.Second):
			c.Status(http.StatusOK)
		}
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, recorder.Code)
}
