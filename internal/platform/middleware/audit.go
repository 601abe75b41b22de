package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/platform/auth"
)

const patientsPrefix = "/api/v1/patients/"

// AuditEntry records who touched which patient's data and how.
type AuditEntry struct {
	Login      string
	Role       auth.Role
	PatientID  string
	Resource   string
	Action     string
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs one "patient_access" event per request under /api/v1/patients.
// Requests elsewhere pass through unrecorded.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Method:     req.Method,
				Path:       path,
				IPAddress:  c.RealIP(),
				RequestID:  requestID(c),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
			}
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			if sess, ok := auth.SessionFromContext(req.Context()); ok {
				entry.Login = sess.Login
				entry.Role = sess.Role
			}
			entry.PatientID, entry.Resource = splitPatientPath(path)

			evt := logger.Info()
			if entry.StatusCode == http.StatusForbidden {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("login", entry.Login).
				Str("role", string(entry.Role)).
				Str("patient_id", entry.PatientID).
				Str("resource", entry.Resource).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("patient_access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	return path == strings.TrimSuffix(patientsPrefix, "/") || strings.HasPrefix(path, patientsPrefix)
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "write"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitPatientPath extracts the cpf and the sub-resource from
// /api/v1/patients/<cpf>/<resource>. The bare patient record yields
// resource "patient".
func splitPatientPath(path string) (cpf, resource string) {
	if !strings.HasPrefix(path, patientsPrefix) {
		return "", "patients"
	}
	segments := strings.SplitN(strings.TrimPrefix(path, patientsPrefix), "/", 2)
	cpf = segments[0]
	resource = "patient"
	if len(segments) == 2 && segments[1] != "" {
		resource = strings.TrimSuffix(segments[1], "/")
	}
	return cpf, resource
}
