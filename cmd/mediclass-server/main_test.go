package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/config"
	"github.com/mediclass/mediclass/internal/domain/staff"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:               "test",
		Store:             config.StoreMemory,
		SessionSigningKey: strings.Repeat("s", 32),
		SessionTTL:        time.Hour,
		HistoryBackend:    config.HistoryFile,
		HistoryDir:        t.TempDir(),
		DocumentSink:      config.SinkLocal,
		DocumentDir:       t.TempDir(),
		CORSOrigins:       []string{"http://localhost:3000"},
		RequestTimeout:    5 * time.Second,
		RateLimitRPS:      100,
		RateLimitBurst:    100,
		BodyLimit:         "1M",
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := testConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := buildApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(a.Close)

	svc := staff.NewService(a.staffRepo, nil, zerolog.Nop())
	for _, m := range []staff.NewMember{
		{Login: "enf", Name: "Ana Lima", Registration: "5678", Role: "intake", Password: "intake-secret"},
		{Login: "med", Name: "Carla Souza", Registration: "1234", Role: "diagnostician", Password: "doctor-secret"},
	} {
		if _, err := svc.Create(context.Background(), m); err != nil {
			t.Fatalf("create %s: %v", m.Login, err)
		}
	}
	return a
}

func do(t *testing.T, a *app, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, a *app, user, password string) string {
	t.Helper()
	rec := do(t, a, http.MethodPost, "/api/v1/auth/login", "", `{"login":"`+user+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", user, rec.Code, rec.Body.String())
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return res.Token
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestAPI_RequiresSession(t *testing.T) {
	a := newTestApp(t)
	if rec := do(t, a, http.MethodGet, "/api/v1/patients", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, a, http.MethodPost, "/api/v1/auth/login", "", `{"login":"med","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad password, got %d", rec.Code)
	}
}

func TestAPI_TriageToConsultation(t *testing.T) {
	a := newTestApp(t)
	nurse := login(t, a, "enf", "intake-secret")
	doctor := login(t, a, "med", "doctor-secret")

	rec := do(t, a, http.MethodPost, "/api/v1/patients", nurse,
		`{"cpf":"123","name":"Maria Silva","birth_date":"1980-01-02","bed":"4"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	// Consulting before triage is a conflict, not a crash.
	rec = do(t, a, http.MethodPost, "/api/v1/patients/123/consultations", doctor, `{"subgroup":"1"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("consult before triage: expected 409, got %d", rec.Code)
	}

	triage := `{"vitals":{"heart_rate":"130","systolic_bp":"120","diastolic_bp":"80","oxygen_saturation":"98"},` +
		`"category":"cardiovascular","answers":["yes","no","no","no"]}`
	rec = do(t, a, http.MethodPost, "/api/v1/patients/123/triage", nurse, triage)
	if rec.Code != http.StatusCreated {
		t.Fatalf("triage: %d %s", rec.Code, rec.Body.String())
	}
	var tr struct {
		Priority bool `json:"priority"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &tr)
	if !tr.Priority {
		t.Error("expected priority after an abnormal heart rate")
	}

	// Intake staff may not diagnose.
	rec = do(t, a, http.MethodPost, "/api/v1/patients/123/consultations", nurse, `{"subgroup":"1","answers":["yes"]}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("nurse consult: expected 403, got %d", rec.Code)
	}

	rec = do(t, a, http.MethodPost, "/api/v1/patients/123/consultations", doctor, `{"subgroup":"1","answers":["yes"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("consult: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, a, http.MethodGet, "/api/v1/patients/123/history", nurse, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: %d", rec.Code)
	}
	var hist struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	joined := strings.Join(hist.Lines, "\n")
	for _, want := range []string{
		"History of Maria Silva (CPF: 123)",
		"FLAG: Priority activated due to abnormal values.",
		"Consultation by Carla Souza (CRM 1234): category cardiovascular, subgroup 1",
		"Suggestion: Cardiovascular: Possible AMI",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("history missing %q:\n%s", want, joined)
		}
	}

	rec = do(t, a, http.MethodGet, "/api/v1/patients/123/history/verify", doctor, "")
	var v struct {
		Valid bool `json:"valid"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &v)
	if rec.Code != http.StatusOK || !v.Valid {
		t.Errorf("verify: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_Catalog(t *testing.T) {
	a := newTestApp(t)
	token := login(t, a, "med", "doctor-secret")
	for _, path := range []string{"/api/v1/catalog/symptoms", "/api/v1/catalog/exams", "/api/v1/catalog/decision/trauma"} {
		if rec := do(t, a, http.MethodGet, path, token, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestHealthDB_ReportsHistoryDir(t *testing.T) {
	cfg := testConfig(t)
	a, err := buildApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(a.Close)

	rec := do(t, a, http.MethodGet, "/health/db", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Store  string            `json:"store"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Store != "memory" || body.Checks["history_dir"] != "ok" {
		t.Errorf("unexpected health body %+v", body)
	}

	if err := os.RemoveAll(cfg.HistoryDir); err != nil {
		t.Fatalf("remove history dir: %v", err)
	}
	if rec := do(t, a, http.MethodGet, "/health/db", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without the history dir, got %d", rec.Code)
	}
}

func TestAPI_MultilineTextIsBadRequest(t *testing.T) {
	a := newTestApp(t)
	nurse := login(t, a, "enf", "intake-secret")

	rec := do(t, a, http.MethodPost, "/api/v1/patients", nurse,
		`{"cpf":"456","name":"Maria\nSilva","birth_date":"1980-01-02","bed":"4"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("multi-line name: expected 400, got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, a, http.MethodPost, "/api/v1/patients", nurse,
		`{"cpf":"456","name":"Maria Silva","birth_date":"1980-01-02","bed":"4"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register after rejection: %d %s", rec.Code, rec.Body.String())
	}

	triage := `{"vitals":{"heart_rate":"80","systolic_bp":"120","diastolic_bp":"80","oxygen_saturation":"98"},` +
		`"category":"cardiovascular","answers":["yes","no","no","no"],"detail":"pain since morning\nworse after meals"}`
	rec = do(t, a, http.MethodPost, "/api/v1/patients/456/triage", nurse, triage)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("multi-line detail: expected 400, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, a, http.MethodGet, "/api/v1/patients/456/history/verify", nurse, "")
	if rec.Code != http.StatusOK {
		t.Errorf("verify: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
}
