package middleware

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/logger"
	"storefront/internal/session"
)

// unexported, collision-proof context keys
type (
	sessionIDContextKeyType  struct{}
	customerIDContextKeyType struct{}
)

var (
	sessionIDKey  = sessionIDContextKeyType{}
	customerIDKey = customerIDContextKeyType{}
)

// SessionIDFromContext returns the session attached by Sessions.Attach.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// CustomerIDFromContext returns the logged-in customer, if any.
func CustomerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(customerIDKey).(string)
	return id, ok && id != ""
}

// Sessions makes sure every shopper request runs inside a live session,
// creating an anonymous one on first contact.
type Sessions struct {
	Store  session.Store
	Policy session.Policy
	Cookie session.CookieOptions

	now func() time.Time
}

func NewSessions(store session.Store, policy session.Policy, cookie session.CookieOptions) *Sessions {
	return &Sessions{Store: store, Policy: policy, Cookie: cookie, now: time.Now}
}

func (s *Sessions) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := s.now()

		sess, err := s.load(r, now)
		if err != nil {
			logger.Error("session lookup failed", map[string]any{
				"error": err.Error(),
			})
			writeError(w, apperr.StoreFailure("middleware.Sessions", err))
			return
		}

		if sess == nil {
			fresh, err := session.New(now, s.Policy)
			if err == nil {
				err = s.Store.Create(ctx, fresh)
			}
			if err != nil {
				logger.Error("session create failed", map[string]any{
					"error": err.Error(),
				})
				writeError(w, apperr.StoreFailure("middleware.Sessions", err))
				return
			}
			sess = &fresh
		} else {
			sess.Touch(now, s.Policy)
			if err := s.Store.Update(ctx, *sess); err != nil {
				writeError(w, apperr.StoreFailure("middleware.Sessions", err))
				return
			}
		}

		session.SetCookie(w, sess.SessionID, sess.ExpiresAt, s.Cookie)

		ctx = context.WithValue(ctx, sessionIDKey, sess.SessionID)
		if sess.Authenticated() {
			ctx = context.WithValue(ctx, customerIDKey, sess.CustomerID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Sessions) load(r *http.Request, now time.Time) (*session.Session, error) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := s.Store.Get(r.Context(), cookie.Value)
	if err != nil || sess == nil {
		return nil, err
	}

	// enforce expiry even if the store lags behind
	if sess.Expired(now) {
		_ = s.Store.Delete(r.Context(), sess.SessionID)
		return nil, nil
	}
	return sess, nil
}

// RequireCustomer rejects requests whose session has no logged-in customer.
// It must run after Attach.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CustomerIDFromContext(r.Context()); !ok {
			writeError(w, apperr.New("middleware.RequireCustomer", apperr.KindUnauthorized, "login required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
