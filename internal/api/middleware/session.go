package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/crypto"
	"github.com/eldtechnologies/roomboard/internal/session"
)

// SessionCookieName is the cookie carrying the signed session id.
const SessionCookieName = "roomboard_session"

// SessionOptions configures the Sessions middleware.
type SessionOptions struct {
	Store  session.Store
	Secret []byte
	TTL    time.Duration
	Secure bool // Set the cookie Secure flag (production)
	Logger zerolog.Logger
}

// Sessions loads the visitor session from the signed cookie into the request
// context, issuing a new cookie when none is present. Changes are persisted
// before the first byte of the response is written, so a failed save turns
// into a 500 rather than a response the store never saw. An ended session is
// deleted instead of saved.
func Sessions(opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			s, err := loadSession(ctx, opts, r)
			if err != nil {
				opts.Logger.Error().Err(err).Msg("session load failed")
				jsonError(w, http.StatusInternalServerError, "session unavailable")
				return
			}
			if s == nil {
				s = session.New(crypto.NewSessionID())
				token, err := crypto.SignToken(opts.Secret, s.ID)
				if err != nil {
					opts.Logger.Error().Err(err).Msg("session token signing failed")
					jsonError(w, http.StatusInternalServerError, "session unavailable")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			sw := &sessionWriter{
				ResponseWriter: w,
				commit: func() error {
					return commitSession(ctx, opts, s)
				},
				logger: opts.Logger,
			}
			next.ServeHTTP(sw, r.WithContext(session.NewContext(ctx, s)))
			if !sw.committed {
				sw.WriteHeader(http.StatusOK)
			}
		})
	}
}

// commitSession persists s if it changed during the request.
func commitSession(ctx context.Context, opts SessionOptions, s *session.Session) error {
	// The client may be gone; the change must still be persisted
	ctx = context.WithoutCancel(ctx)
	switch {
	case s.Ended():
		if err := opts.Store.DeleteSession(ctx, s.ID); err != nil {
			return err
		}
	case s.Dirty():
		if err := opts.Store.SaveSession(ctx, s, opts.TTL); err != nil {
			return err
		}
	}
	s.MarkClean()
	return nil
}

// sessionWriter commits the session when the handler starts its response.
// If the commit fails the handler's response is replaced by a 500.
type sessionWriter struct {
	http.ResponseWriter
	commit    func() error
	logger    zerolog.Logger
	committed bool
	failed    bool
}

func (w *sessionWriter) WriteHeader(status int) {
	if w.committed {
		if !w.failed {
			w.ResponseWriter.WriteHeader(status)
		}
		return
	}
	w.committed = true
	if err := w.commit(); err != nil {
		w.logger.Error().Err(err).Msg("session save failed")
		w.failed = true
		jsonError(w.ResponseWriter, http.StatusInternalServerError, "session unavailable")
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// loadSession returns the stored session for the request cookie. A valid
// cookie whose session expired yields an empty session with the same id.
// It returns nil, nil when the request carries no valid cookie.
func loadSession(ctx context.Context, opts SessionOptions, r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, nil
	}
	id, err := crypto.VerifyToken(opts.Secret, cookie.Value)
	if err != nil {
		opts.Logger.Debug().Err(err).Msg("ignoring invalid session cookie")
		return nil, nil
	}

	s, err := opts.Store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = session.New(id)
	}
	return s, nil
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
