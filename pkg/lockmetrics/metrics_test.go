package lockmetrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arwl/pkg/concurrency/arwlock"

	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsObservations(t *testing.T) {
	c := NewCollector()

	c.ObserveWait(arwlock.KindRead, 5*time.Millisecond)
	c.SetQueueDepth(arwlock.KindWrite, 3)
	c.SetHolders(arwlock.KindRead, 2)
	c.ObserveCallbackDrain(time.Microsecond)
	c.IncCanceled(arwlock.KindWrite)
	c.IncCompleted()

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"arwlock_wait_seconds",
		"arwlock_queue_depth",
		"arwlock_holders",
		"arwlock_callback_drain_seconds",
		"arwlock_canceled_total",
		"arwlock_completions_total",
	} {
		require.True(t, names[want], "missing metric family %s", want)
	}
}

func TestTwoCollectorsDoNotCollideOnRegistration(t *testing.T) {
	require.NotPanics(t, func() {
		_ = NewCollector()
		_ = NewCollector()
	})
}

func TestCollectorImplementsMetricsRecorder(t *testing.T) {
	var _ arwlock.MetricsRecorder = NewCollector()
}

func TestExporterServesMetricsAndHealth(t *testing.T) {
	c := NewCollector()
	c.IncCompleted()

	mux := http.NewServeMux()
	NewExporter(c).Register(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}
