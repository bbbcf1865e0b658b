package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

// sampleCount returns the observation count of the histogram series matching labels.
func sampleCount(t *testing.T, c prometheus.Collector, labels map[string]string) uint64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		matched := 0
		for _, lp := range d.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return d.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestMiddleware_ObservesRoutePattern(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/calculations/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	labels := map[string]string{"method": "GET", "path": "/calculations/:id", "status": "404"}
	before := sampleCount(t, httpRequestDuration, labels)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calculations/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, sampleCount(t, httpRequestDuration, labels))
}

func TestMiddleware_PlainErrorCountsAsServerError(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("database gone")
	})

	labels := map[string]string{"method": "GET", "path": "/boom", "status": "500"}
	before := sampleCount(t, httpRequestDuration, labels)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, before+1, sampleCount(t, httpRequestDuration, labels))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Logins.WithLabelValues(OutcomeFailed))
	Logins.WithLabelValues(OutcomeFailed).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Logins.WithLabelValues(OutcomeFailed)))
}
