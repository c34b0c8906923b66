package breathing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/soothe/backend/internal/service/breathing"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func setupRouter(sleep breathing.SleepFunc) *chi.Mux {
	r := chi.NewRouter()
	New(sleep, nil).RegisterRoutes(r)
	return r
}

func TestStreamEmitsStepsAndCompletion(t *testing.T) {
	r := setupRouter(noSleep)

	req := httptest.NewRequest(http.MethodGet, "/breathing/stream?inhale=3&hold=0&exhale=4&cycles=2", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	body := resp.Body.String()
	assert.Equal(t, 1, strings.Count(body, "event: start"))
	// Zero hold is skipped: two phases per cycle.
	assert.Equal(t, 4, strings.Count(body, "event: step"))
	assert.Contains(t, body, "Cycle 2/2 – exhale")
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, breathing.Completion)
}

func TestStreamRejectsOutOfBoundsPattern(t *testing.T) {
	r := setupRouter(noSleep)

	req := httptest.NewRequest(http.MethodGet, "/breathing/stream?inhale=1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "inhale")
}

func TestStreamRejectsNonNumeric(t *testing.T) {
	r := setupRouter(noSleep)

	req := httptest.NewRequest(http.MethodGet, "/breathing/stream?cycles=many", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStreamStopsWhenClientLeaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sleep := func(ctx context.Context, _ time.Duration) error {
		calls++
		cancel()
		return ctx.Err()
	}
	r := setupRouter(sleep)

	req := httptest.NewRequest(http.MethodGet, "/breathing/stream", nil).WithContext(ctx)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, strings.Count(resp.Body.String(), "event: step"))
	assert.NotContains(t, resp.Body.String(), "event: done")
}
