package consult

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediclass/mediclass/internal/platform/auth"
)

func newContext(e *echo.Echo, body string, sess *auth.Session, cpf string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, "/", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if sess != nil {
		req = req.WithContext(auth.WithSession(req.Context(), *sess))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("cpf")
	c.SetParamValues(cpf)
	return c, rec
}

func expectCode(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func TestHandler_ConsultSteps(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "123", "cardiovascular")
	h, e := NewHandler(env.svc), echo.New()

	c, rec := newContext(e, `{"subgroup":"1"}`, &diagnostician, "123")
	if err := h.Consult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for a pending question, got %d", rec.Code)
	}

	c, rec = newContext(e, `{"subgroup":"1","answers":["yes"]}`, &diagnostician, "123")
	if err := h.Consult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(res.Entries))
	}
}

func TestHandler_ConsultWithoutTriage(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "123", "")
	h, e := NewHandler(env.svc), echo.New()

	c, _ := newContext(e, `{"subgroup":"1"}`, &diagnostician, "123")
	expectCode(t, h.Consult(c), http.StatusConflict)
}

func TestHandler_ConsultUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	h, e := NewHandler(env.svc), echo.New()

	c, _ := newContext(e, `{"subgroup":"1"}`, nil, "123")
	expectCode(t, h.Consult(c), http.StatusUnauthorized)
}

func TestHandler_PrescribeInvalid(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "123", "")
	h, e := NewHandler(env.svc), echo.New()

	c, _ := newContext(e, `{"items":[{"medication":"Dipyrone","dose_mg":500,"interval_hours":6,"days":0}]}`, &diagnostician, "123")
	expectCode(t, h.Prescribe(c), http.StatusUnprocessableEntity)
}

func TestHandler_CertificateAndExamRequest(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, "123", "")
	h, e := NewHandler(env.svc), echo.New()

	c, rec := newContext(e, "", &diagnostician, "123")
	if err := h.Certificate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	c, rec = newContext(e, "", &diagnostician, "123")
	if err := h.RequestExam(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	c, _ = newContext(e, "", &diagnostician, "404")
	expectCode(t, h.RequestExam(c), http.StatusNotFound)
}
