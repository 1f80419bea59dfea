package gate

import (
	"context"
	"crypto/subtle"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/apperr"
	"github.com/eldtechnologies/roomboard/internal/metrics"
	"github.com/eldtechnologies/roomboard/internal/session"
)

// Admin authenticates the single configured administrator.
type Admin struct {
	id       string
	password string
	logger   zerolog.Logger
}

// NewAdmin creates an authenticator. Empty credentials reject every login.
func NewAdmin(id, password string, logger zerolog.Logger) *Admin {
	return &Admin{id: id, password: password, logger: logger}
}

type loginInput struct {
	ID       string `validate:"required"`
	Password string `validate:"required"`
}

// Login marks the request session as admin when the credentials match.
func (a *Admin) Login(ctx context.Context, id, password string) error {
	if err := apperr.Validate(loginInput{ID: id, Password: password}, "Missing username or password"); err != nil {
		return err
	}

	s := session.FromContext(ctx)
	if a.id == "" || a.password == "" || s == nil || !a.matches(id, password) {
		metrics.AdminLogins.WithLabelValues("failure").Inc()
		a.logger.Warn().Str("username", id).Msg("admin login failed")
		return apperr.Unauthorized("Invalid credentials")
	}

	s.SetAdmin(true)
	metrics.AdminLogins.WithLabelValues("success").Inc()
	a.logger.Info().Str("session", s.ID).Msg("admin logged in")
	return nil
}

func (a *Admin) matches(id, password string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(a.id), []byte(id))
	pwOK := subtle.ConstantTimeCompare([]byte(a.password), []byte(password))
	return idOK&pwOK == 1
}

// Logout ends the request session, dropping admin rights and room unlocks.
func (a *Admin) Logout(ctx context.Context) {
	if s := session.FromContext(ctx); s != nil {
		s.End()
	}
}

// RequireAdmin fails with an unauthorized error unless the request session is admin.
func RequireAdmin(ctx context.Context) error {
	if !session.FromContext(ctx).IsAdmin() {
		return apperr.Unauthorized("Unauthorized")
	}
	return nil
}
