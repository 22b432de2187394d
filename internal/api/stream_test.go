package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/classifier"
	"github.com/coastwatch/coastal-hazard-alerts/internal/config"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
	"github.com/coastwatch/coastal-hazard-alerts/internal/report"
	"github.com/coastwatch/coastal-hazard-alerts/internal/stream"
)

// closeNotifyRecorder adds the http.CloseNotifier method that
// gin's Context.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

func TestStreamAlerts(t *testing.T) {
	repo := &stubRepo{}
	registry, err := classifier.LoadRegistry("testdata")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	dispatcher := alerting.NewDispatcher(nil)
	b := stream.NewBroadcaster()

	svc := report.NewService(registry, dispatcher, repo, b, report.NoopGeocoder{},
		config.Thresholds{Yellow: 0.3, Orange: 0.6, Red: 0.8})

	r := gin.New()
	NewHandler(svc, repo, registry, dispatcher, b).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/alerts/stream", nil)
	w := &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	// Wait for the handler to subscribe before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for b.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	alert := &models.Alert{
		ID:          "stream-test-1",
		HazardType:  models.HazardOilSpill,
		Level:       models.AlertLevelOrange,
		Location:    models.Location{Latitude: 36.6, Longitude: -121.9},
		Confidence:  0.72,
		Description: "sheen reported near harbor",
		Timestamp:   time.Now().UTC(),
	}
	b.Broadcast(alert)

	// The subscriber channel is buffered, so the broadcast alert is
	// delivered before the close unblocks the stream loop.
	b.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not exit after broadcaster close")
	}

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("expected text/event-stream content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:alert") {
		t.Errorf("expected an alert event frame, got %q", body)
	}
	if !strings.Contains(body, "stream-test-1") {
		t.Errorf("expected broadcast alert in stream, got %q", body)
	}
}
