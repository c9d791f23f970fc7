package middleware

import (
	"context"
	"net/http"
	"strings"

	"timer-sync-server/pkg/response"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey contextKey = "requestID"

	DeviceIDHeader  = "X-Device-ID"
	RequestIDHeader = "X-Request-ID"

	bearerPrefix = "Bearer "
)

type BearerVerifier interface {
	VerifyBearer(token string) bool
}

// AuthMiddleware admits requests whose Authorization header is exactly
// "Bearer <secret>". Anything else is answered with 401 before the wrapped
// handler, and therefore storage, is reached.
func AuthMiddleware(verifier BearerVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok || !verifier.VerifyBearer(token) {
				response.Unauthorized(w, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authHeader, bearerPrefix)
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRequestID(r *http.Request) string {
	requestID, ok := r.Context().Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return requestID
}

func GetDeviceID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(DeviceIDHeader))
}
