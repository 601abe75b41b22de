package auth

import (
	"context"
	"fmt"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// Role is the staff function a session acts in.
type Role string

const (
	RoleDiagnostician Role = "diagnostician"
	RoleIntake        Role = "intake"
	RoleTechnician    Role = "technician"
)

// Capability is a permission tag carried by a session.
type Capability string

const (
	CapRegister   Capability = "register"
	CapTriage     Capability = "triage"
	CapDiagnose   Capability = "diagnose"
	CapRecordExam Capability = "record_exam"
)

var roleCapabilities = map[Role][]Capability{
	RoleDiagnostician: {CapRegister, CapDiagnose},
	RoleIntake:        {CapRegister, CapTriage},
	RoleTechnician:    {CapRegister, CapRecordExam},
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleCapabilities[r]; !ok {
		return "", apperr.Format("role", s, "diagnostician, intake or technician")
	}
	return r, nil
}

// CapabilitiesOf lists the capabilities granted to a role.
func CapabilitiesOf(r Role) []Capability {
	caps := roleCapabilities[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// RegistrationLabel is the professional council prefix shown next to a
// staff member's registration number.
func (r Role) RegistrationLabel() string {
	switch r {
	case RoleDiagnostician:
		return "CRM"
	case RoleIntake:
		return "COREN"
	case RoleTechnician:
		return "CRTR"
	}
	return ""
}

// Session is the authenticated staff member a request acts for.
type Session struct {
	Login        string       `json:"login"`
	Name         string       `json:"name"`
	Registration string       `json:"registration"`
	Role         Role         `json:"role"`
	Capabilities []Capability `json:"capabilities"`
}

func NewSession(login, name, registration string, role Role) Session {
	return Session{
		Login:        login,
		Name:         name,
		Registration: registration,
		Role:         role,
		Capabilities: CapabilitiesOf(role),
	}
}

func (s Session) Has(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Require returns an AccessDenied error unless the session carries c.
func (s Session) Require(c Capability, operation string) error {
	if s.Has(c) {
		return nil
	}
	return apperr.Denied(operation, string(s.Role))
}

// Signature renders "<name> (<council> <registration>)" for ledger lines.
func (s Session) Signature() string {
	return fmt.Sprintf("%s (%s %s)", s.Name, s.Role.RegistrationLabel(), s.Registration)
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session attached by the auth middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
