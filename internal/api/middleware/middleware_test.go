package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestDeduplicatorWindow(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	d := newDeduplicator(time.Second, clk.Now)

	assert.False(t, d.Seen("a"))
	assert.True(t, d.Seen("a"))
	assert.False(t, d.Seen("b"))

	clk.Advance(2 * time.Second)
	assert.False(t, d.Seen("a"))
}

func TestDeduplicatorSweepsExpired(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	d := newDeduplicator(time.Second, clk.Now)
	d.Seen("a")
	d.Seen("b")

	clk.Advance(11 * time.Second)
	d.Seen("c")
	assert.Equal(t, 1, d.Len())
}

func TestDeduplicationMiddleware(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	r := gin.New()
	var bodies []string
	r.POST("/submit", d.Middleware(), func(c *gin.Context) {
		raw, err := c.GetRawData()
		require.NoError(t, err)
		bodies = append(bodies, string(raw))
		c.Status(http.StatusOK)
	})

	post := func(body string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post(`{"name":"a"}`))
	assert.Equal(t, http.StatusTooManyRequests, post(`{"name":"a"}`))
	assert.Equal(t, http.StatusOK, post(`{"name":"b"}`))
	assert.Equal(t, []string{`{"name":"a"}`, `{"name":"b"}`}, bodies, "handler sees the restored body")
}

func TestDeduplicationReleasesFailedRequests(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	r := gin.New()
	status := http.StatusBadGateway
	calls := 0
	r.POST("/submit", d.Middleware(), func(c *gin.Context) {
		calls++
		c.Status(status)
	})

	post := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"name":"a"}`)))
		return w.Code
	}

	assert.Equal(t, http.StatusBadGateway, post())
	status = http.StatusOK
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, d.Len())
}

func TestRateLimiter(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	rl := newRateLimiter(2, time.Second, clk.Now)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	clk.Advance(500 * time.Millisecond)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.POST("/", BodySizeLimit(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
