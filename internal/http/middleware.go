package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/bagshop/internal/auth"
	"github.com/fjod/bagshop/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CartIDHeader = "X-Cart-ID"

type ctxKey int

const (
	sessionKey ctxKey = iota
	ownerKey
)

// SessionResolver looks up a bearer token.
type SessionResolver interface {
	Session(ctx context.Context, token string) (*auth.Session, error)
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Ctx(r.Context(), log).Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// SessionMiddleware attaches the session named by an Authorization bearer
// token. Requests without a token pass through anonymously; an unknown or
// expired token is rejected.
func SessionMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.Session(r.Context(), token)
			if errors.Is(err, auth.ErrSessionNotFound) {
				respondError(w, http.StatusUnauthorized, "session_expired", "session not found or expired")
				return
			}
			if err != nil {
				handleError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects anonymous requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFromContext(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CartOwnerMiddleware decides whose cart a request works on: the signed-in
// customer, or the guest cart named by X-Cart-ID. Guests without a valid id
// get a fresh one, echoed back in the response header.
func CartOwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var owner string
		if sess := sessionFromContext(r.Context()); sess != nil {
			owner = sess.CustomerID()
		} else {
			id, err := uuid.Parse(r.Header.Get(CartIDHeader))
			if err != nil {
				id = uuid.New()
			}
			w.Header().Set(CartIDHeader, id.String())
			owner = "guest:" + id.String()
		}
		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func sessionFromContext(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionKey).(*auth.Session)
	return sess
}

func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}
