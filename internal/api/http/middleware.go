package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"fuelrecon-backend/internal/config"
	"fuelrecon-backend/internal/domain"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/metrics"
	"fuelrecon-backend/internal/security"
)

type authKey struct{}

// AuthFromContext returns the caller set by the auth middleware.
func AuthFromContext(ctx context.Context) (domain.AuthContext, bool) {
	auth, ok := ctx.Value(authKey{}).(domain.AuthContext)
	return auth, ok
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
		return route.GetName()
	}
	return "unknown"
}

// authMiddleware turns a bearer token into an AuthContext for every non-public route.
func authMiddleware(tm security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.GetSecurityLevel(routeName(r)) == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token, err := extractToken(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "UNAUTHENTICATED", Message: err.Error()})
				return
			}
			claims, err := tm.ValidateToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Code: "UNAUTHENTICATED", Message: fmt.Sprintf("invalid token: %v", err)})
				return
			}

			ctx := context.WithValue(r.Context(), authKey{}, claims.AuthContext())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("authorization token is not provided")
	}
	if len(header) > 7 && strings.ToUpper(header[0:7]) == "BEARER " {
		return header[7:], nil
	}
	return "", fmt.Errorf("authorization header must be a bearer token")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// observeMiddleware logs and counts every request by route name.
func observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Error("Handler panicked", "route", routeName(r), "panic", p)
				rec.status = http.StatusInternalServerError
				writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "internal error"})
			}
			elapsed := time.Since(start)
			route := routeName(r)
			metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(rec.status), elapsed)
			logger.Debug("HTTP request", "method", r.Method, "route", route, "path", r.URL.Path,
				"status", rec.status, "duration", elapsed)
		}()

		next.ServeHTTP(rec, r)
	})
}
