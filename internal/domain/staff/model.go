// Package staff holds the role holders allowed to sign in and the password
// check that admits them.
package staff

import (
	"strings"
	"time"

	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
)

// Member maps to the staff_member table.
type Member struct {
	Login        string    `json:"login"`
	Name         string    `json:"name"`
	Registration string    `json:"registration"`
	Role         auth.Role `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the authenticated view of m.
func (m *Member) Session() auth.Session {
	return auth.NewSession(m.Login, m.Name, m.Registration, m.Role)
}

// NewMember is the input for creating a staff member.
type NewMember struct {
	Login        string `json:"login"`
	Name         string `json:"name"`
	Registration string `json:"registration"`
	Role         string `json:"role"`
	Password     string `json:"password"`
}

func (n *NewMember) validate() (auth.Role, error) {
	n.Login = strings.TrimSpace(n.Login)
	n.Name = strings.TrimSpace(n.Name)
	if n.Login == "" {
		return "", apperr.Format("login", "", "a non-empty login")
	}
	if n.Name == "" {
		return "", apperr.Format("name", "", "a non-empty name")
	}
	if n.Registration == "" {
		return "", apperr.Format("registration", "", "a professional registration number")
	}
	if err := apperr.SingleLine("name", n.Name); err != nil {
		return "", err
	}
	if err := apperr.SingleLine("registration", n.Registration); err != nil {
		return "", err
	}
	if len(n.Password) < 4 {
		return "", apperr.Format("password", "", "at least 4 characters")
	}
	return auth.ParseRole(n.Role)
}
