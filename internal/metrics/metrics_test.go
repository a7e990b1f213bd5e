package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMutationOutcomes(t *testing.T) {
	success := testutil.ToFloat64(mutations.WithLabelValues("success"))
	failure := testutil.ToFloat64(mutations.WithLabelValues("failure"))

	RecordMutation(nil)
	RecordMutation(errors.New("write failed"))

	assert.Equal(t, success+1, testutil.ToFloat64(mutations.WithLabelValues("success")))
	assert.Equal(t, failure+1, testutil.ToFloat64(mutations.WithLabelValues("failure")))
}

func TestMiddlewareCountsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/storage", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/storage", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/storage", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/storage", "200")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordSnapshot("storage")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "depot_sync_snapshots_total")
}
