package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewRecorder()

	r.ObserveSubmission(true, 2, time.Second)
	r.ObserveSubmission(false, 0, time.Millisecond)
	r.ObserveSubmission(false, 1, time.Millisecond)
	r.IncRejected()
	r.IncURLsAdded()
	r.IncURLsAdded()

	assert.Equal(t, 1.0, testutil.ToFloat64(r.submissionsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.submissionsTotal.WithLabelValues(StatusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.submissionsTotal.WithLabelValues(StatusRejected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.urlsAddedTotal))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	// Повторное создание не паникует из-за дублирующей регистрации
	a := NewRecorder()
	b := NewRecorder()
	a.IncURLsAdded()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.urlsAddedTotal))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveSubmission(true, 1, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `supportgen_submissions_total{status="success"} 1`)
	assert.Contains(t, string(body), "supportgen_submission_duration_seconds_bucket")
}
