package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"eventdash/internal/model"
)

// claims is the JWT payload issued by login.
type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ctxKey int

const userKey ctxKey = iota

// userFrom returns the authenticated user attached by requireAuth.
func userFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}

func hashPassword(pw string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
}

func checkPassword(hash []byte, pw string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pw)) == nil
}

func (s *Server) issueToken(u model.User) (string, error) {
	now := s.now()
	c := claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			Issuer:    "eventdash",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.opts.Secret)
}

func (s *Server) parseToken(raw string) (model.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.opts.Secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer("eventdash"))
	if err != nil {
		return model.User{}, err
	}
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return model.User{}, errors.New("bad subject")
	}
	return model.User{ID: id, Name: c.Name, Email: c.Email}, nil
}

// requireAuth rejects requests without a valid "Bearer <jwt>" header.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
			writeError(w, http.StatusUnauthorized, "Token não informado")
			return
		}
		u, err := s.parseToken(strings.TrimSpace(tok))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Sessão expirada ou inválida")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}
