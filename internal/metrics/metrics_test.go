package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.ReviewsCreated.Inc()
	reg.ReviewsRejected.WithLabelValues("invalid_location").Add(2)
	reg.ReviewsStored.Set(7)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "reviews_created_total 1")
	assert.Contains(t, string(body), `reviews_rejected_total{reason="invalid_location"} 2`)
	assert.Contains(t, string(body), "reviews_stored 7")
}

func TestNewRegistry_Isolated(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.Queries.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Queries))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Queries))
}
