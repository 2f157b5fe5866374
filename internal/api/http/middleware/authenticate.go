package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/modkit/modkit-server/internal/logger"
)

// TokenParser validates bearer tokens and resolves their subject.
type TokenParser interface {
	ParseAccessToken(tokenString string) (string, error)
}

type contextKey string

const subjectKey contextKey = "subject"

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

// Authenticate validates bearer tokens and injects the subject into context.
type Authenticate struct {
	tokens TokenParser
	logger *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokens TokenParser, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokens: tokens, logger: logger}
}

// Handle parses the Authorization header and rejects requests without a
// valid bearer token.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" {
			http.Error(w, "missing authorization token", http.StatusUnauthorized)
			return
		}

		subject, err := m.tokens.ParseAccessToken(tokenString)
		if err != nil {
			m.logger.Debug("rejected access token", "error", err)
			http.Error(w, "invalid authorization token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
	})
}
