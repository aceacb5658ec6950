package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "omotailor_session"
	SessionHeader     = "X-Session-ID"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

type contextKey string

const (
	sessionIDKey  contextKey = "session_id"
	newSessionKey contextKey = "new_session"
)

// SessionMiddleware attaches the caller's session id to the request context, issuing a new
// one when the request carries none or an unparseable one.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := sessionFromRequest(r)
		if sessionID == "" {
			sessionID = uuid.NewString()
			ctx = context.WithValue(ctx, newSessionKey, true)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, sessionID)

		ctx = context.WithValue(ctx, sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromRequest(r *http.Request) string {
	candidates := []string{r.Header.Get(SessionHeader)}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		candidates = append([]string{c.Value}, candidates...)
	}
	for _, id := range candidates {
		if parsed, err := uuid.Parse(id); err == nil {
			return parsed.String()
		}
	}
	return ""
}

func getSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// isNewSession reports whether the session id was issued by this request, in which case
// nothing can have been stored for it yet.
func isNewSession(ctx context.Context) bool {
	v, _ := ctx.Value(newSessionKey).(bool)
	return v
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
