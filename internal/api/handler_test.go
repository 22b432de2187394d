package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/classifier"
	"github.com/coastwatch/coastal-hazard-alerts/internal/config"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
	"github.com/coastwatch/coastal-hazard-alerts/internal/report"
	"github.com/coastwatch/coastal-hazard-alerts/internal/repository"
	"github.com/coastwatch/coastal-hazard-alerts/internal/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRepo struct {
	alerts   []models.Alert
	listErr  error
	lastFilt repository.Filter
}

func (s *stubRepo) Add(ctx context.Context, a *models.Alert) error {
	s.alerts = append(s.alerts, *a)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			return &s.alerts[i], nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListAlerts(ctx context.Context, f repository.Filter) ([]models.Alert, error) {
	s.lastFilt = f
	return s.alerts, s.listErr
}

func (s *stubRepo) CountAlerts(ctx context.Context) (int, error) {
	return len(s.alerts), nil
}

func testRouter(t *testing.T, repo repository.AlertRepository) *gin.Engine {
	t.Helper()
	registry, err := classifier.LoadRegistry("testdata")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	dispatcher := alerting.NewDispatcher(nil)
	b := stream.NewBroadcaster()
	t.Cleanup(b.Close)

	svc := report.NewService(registry, dispatcher, repo, b, report.NoopGeocoder{},
		config.Thresholds{Yellow: 0.3, Orange: 0.6, Red: 0.8})

	r := gin.New()
	NewHandler(svc, repo, registry, dispatcher, b).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response JSON: %v\n%s", err, w.Body.String())
		}
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
	loaded, ok := resp["models_loaded"].([]any)
	if !ok || len(loaded) != 3 {
		t.Errorf("expected 3 loaded models, got %v", resp["models_loaded"])
	}
}

func TestPredict(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodPost, "/predict", map[string]any{
		"hazard_type": "algal_bloom",
		"features": map[string]float64{
			"LATITUDE": 34.0, "LONGITUDE": -118.5, "SALINITY": 33.5,
			"WATER_TEMP": 19.2, "WIND_SPEED": 3.1, "Month": 8,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, resp)
	}

	prob, ok := resp["probability"].(float64)
	if !ok || prob < 0 || prob > 1 {
		t.Errorf("probability out of range: %v", resp["probability"])
	}
	if resp["hazard_type"] != "algal_bloom" {
		t.Errorf("unexpected hazard_type: %v", resp["hazard_type"])
	}
	info, ok := resp["model_info"].(map[string]any)
	if !ok || info["type"] != "logistic" {
		t.Errorf("unexpected model_info: %v", resp["model_info"])
	}
}

func TestPredict_MissingFeatures(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodPost, "/predict", map[string]any{
		"hazard_type": "algal_bloom",
		"features":    map[string]float64{"LONGITUDE": -118.5, "Month": 8},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	required, ok := resp["required"].([]any)
	if !ok || len(required) != 6 {
		t.Errorf("expected full required list, got %v", resp["required"])
	}

	received, ok := resp["received"].([]any)
	if !ok {
		t.Fatalf("expected received list, got %v", resp["received"])
	}
	got := make([]string, 0, len(received))
	for _, v := range received {
		got = append(got, v.(string))
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "LONGITUDE" || got[1] != "Month" {
		t.Errorf("unexpected received list: %v", got)
	}
}

func TestPredict_UnknownHazard(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodPost, "/predict", map[string]any{
		"hazard_type": "earthquake",
		"features":    map[string]float64{"a": 1},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if _, ok := resp["available_models"]; !ok {
		t.Error("expected available_models in response")
	}
}

func TestPredict_NonNumericFeatures(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, _ := doJSON(t, r, http.MethodPost, "/predict", map[string]any{
		"hazard_type": "oil_spill",
		"features":    map[string]any{"f_1": "high"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func uploadRequest(t *testing.T, imageData []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if imageData != nil {
		fw, err := mw.CreateFormFile("image", "report.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(imageData)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func uploadPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 110, B: 70, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUpload(t *testing.T) {
	repo := &stubRepo{}
	r := testRouter(t, repo)

	req := uploadRequest(t, uploadPNG(t), map[string]string{
		"latitude":    "34.0",
		"longitude":   "-118.5",
		"description": "dark sheen on the water",
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["success"] != true {
		t.Errorf("expected success true, got %v", resp["success"])
	}
	details, ok := resp["hazard_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected hazard_details, got %v", resp)
	}
	if _, err := models.ParseAlertLevel(details["alert_level"].(string)); err != nil {
		t.Errorf("invalid alert_level: %v", details["alert_level"])
	}
	if len(repo.alerts) != 1 {
		t.Errorf("expected alert persisted, got %d", len(repo.alerts))
	}
}

func TestUpload_MissingImage(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	req := uploadRequest(t, nil, map[string]string{"latitude": "34.0", "longitude": "-118.5"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpload_MissingCoordinates(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	req := uploadRequest(t, uploadPNG(t), map[string]string{"description": "no gps"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpload_OutOfRangeCoordinates(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	req := uploadRequest(t, uploadPNG(t), map[string]string{"latitude": "95.0", "longitude": "-118.5"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetAlerts(t *testing.T) {
	repo := &stubRepo{alerts: []models.Alert{
		{
			ID:         "a1",
			HazardType: models.HazardOilSpill,
			Level:      models.AlertLevelRed,
			Location:   models.Location{Latitude: 34.0, Longitude: -118.5, Name: "Test Bay"},
			Confidence: 0.92,
			Timestamp:  time.Now(),
		},
	}}
	r := testRouter(t, repo)

	w, resp := doJSON(t, r, http.MethodGet, "/alerts?type=oil_spill&min_level=ORANGE&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	alerts, ok := resp["alerts"].([]any)
	if !ok || len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %v", resp["alerts"])
	}

	if repo.lastFilt.HazardType == nil || *repo.lastFilt.HazardType != models.HazardOilSpill {
		t.Errorf("type filter not forwarded: %+v", repo.lastFilt)
	}
	if repo.lastFilt.MinLevel == nil || *repo.lastFilt.MinLevel != models.AlertLevelOrange {
		t.Errorf("min_level filter not forwarded: %+v", repo.lastFilt)
	}
	if repo.lastFilt.Limit != 5 {
		t.Errorf("limit not forwarded: %d", repo.lastFilt.Limit)
	}
}

func TestGetAlerts_EmptyIsArray(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/alerts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"alerts":[]`)) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestGetAlerts_IgnoresBadFilters(t *testing.T) {
	repo := &stubRepo{}
	r := testRouter(t, repo)

	w, _ := doJSON(t, r, http.MethodGet, "/alerts?type=volcano&level=PURPLE&limit="+strconv.Itoa(9999), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if repo.lastFilt.HazardType != nil || repo.lastFilt.Level != nil {
		t.Errorf("bad filters should be ignored: %+v", repo.lastFilt)
	}
	if repo.lastFilt.Limit != 20 {
		t.Errorf("expected default limit 20, got %d", repo.lastFilt.Limit)
	}
}

func TestGetAlertsGeoJSON(t *testing.T) {
	repo := &stubRepo{alerts: []models.Alert{
		{
			ID:         "a1",
			HazardType: models.HazardAlgalBloom,
			Level:      models.AlertLevelYellow,
			Location:   models.Location{Latitude: 34.0, Longitude: -118.5, Name: "Marina"},
			Confidence: 0.45,
			Timestamp:  time.Now(),
		},
	}}
	r := testRouter(t, repo)

	w, resp := doJSON(t, r, http.MethodGet, "/alerts/geojson", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["type"] != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %v", resp["type"])
	}

	features := resp["features"].([]any)
	if len(features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(features))
	}
	geom := features[0].(map[string]any)["geometry"].(map[string]any)
	coords := geom["coordinates"].([]any)
	if coords[0].(float64) != -118.5 || coords[1].(float64) != 34.0 {
		t.Errorf("expected [lon, lat] order, got %v", coords)
	}
}

func TestGetFeatures(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodGet, "/features/oil_spill", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	required, ok := resp["required_features"].([]any)
	if !ok || len(required) != 5 {
		t.Errorf("expected 5 required features, got %v", resp["required_features"])
	}

	w, _ = doJSON(t, r, http.MethodGet, "/features/tsunami", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown hazard, got %d", w.Code)
	}
}

func TestGetModels(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodGet, "/models", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["total_loaded"].(float64) != 3 {
		t.Errorf("expected 3 loaded, got %v", resp["total_loaded"])
	}
}

func TestGetStatus(t *testing.T) {
	r := testRouter(t, &stubRepo{alerts: []models.Alert{{ID: "a1"}, {ID: "a2"}}})

	w, resp := doJSON(t, r, http.MethodGet, "/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["status"] != "GREEN" {
		t.Errorf("expected GREEN before any uploads, got %v", resp["status"])
	}
	if resp["alerts_count"].(float64) != 2 {
		t.Errorf("expected alerts_count 2, got %v", resp["alerts_count"])
	}
}

func TestResetStatus(t *testing.T) {
	r := testRouter(t, &stubRepo{})

	w, resp := doJSON(t, r, http.MethodPost, "/status/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["status"] != "GREEN" {
		t.Errorf("expected GREEN after reset, got %v", resp["status"])
	}
}

func TestGetChannels(t *testing.T) {
	registry, err := classifier.LoadRegistry("testdata")
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	dispatcher := alerting.NewDispatcher([]*alerting.Channel{
		{ID: "email", Name: "Email Alerts", Enabled: true, Levels: []models.AlertLevel{models.AlertLevelRed}},
	})
	repo := &stubRepo{}
	svc := report.NewService(registry, dispatcher, repo, nil, report.NoopGeocoder{},
		config.Thresholds{Yellow: 0.3, Orange: 0.6, Red: 0.8})

	r := gin.New()
	NewHandler(svc, repo, registry, dispatcher, nil).RegisterRoutes(r)

	w, resp := doJSON(t, r, http.MethodGet, "/channels", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	channels := resp["channels"].([]any)
	if len(channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(channels))
	}
}
