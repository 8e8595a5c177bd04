package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/motivaitor/insight/internal/activity"
)

// AuthConfig holds bearer-token verification parameters. An empty Secret
// disables authentication.
type AuthConfig struct {
	Secret string
	Issuer string
}

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid bearer token")
)

type contextKey string

const subjectKey contextKey = "insight-subject"

// parseToken validates an HS256 token and returns its subject.
func parseToken(token string, cfg AuthConfig) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !parsed.Valid {
		return "", errInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}

// authenticate rejects requests without a valid bearer token.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth.Secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeError(w, http.StatusUnauthorized, errMissingToken.Error())
			return
		}
		sub, err := parseToken(header[len("Bearer "):], s.auth)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOwner rejects requests whose token subject differs from {ownerID}.
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := activity.OwnerID(chi.URLParam(r, "ownerID"))
		if !owner.Valid() {
			writeError(w, http.StatusBadRequest, activity.ErrEmptyOwner.Error())
			return
		}
		if s.auth.Secret != "" {
			sub, _ := r.Context().Value(subjectKey).(string)
			if sub != string(owner) {
				writeError(w, http.StatusForbidden, "token subject does not match owner")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func ownerParam(r *http.Request) activity.OwnerID {
	return activity.OwnerID(chi.URLParam(r, "ownerID"))
}
