package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "postboard.sid"

var ErrInvalidCookie = errors.New("invalid session cookie")

// Signer wraps a session token in an HS256 JWT so a tampered cookie is
// rejected before the store is consulted.
type Signer struct {
	secret  []byte
	nowFunc func() time.Time
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	return &Signer{secret: []byte(secret), nowFunc: time.Now}, nil
}

func (s *Signer) Sign(token string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        token,
		IssuedAt:  jwt.NewNumericDate(s.nowFunc()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Verify returns the session token carried by a signed cookie value.
func (s *Signer) Verify(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowFunc),
	)
	if err != nil || claims.ID == "" {
		return "", ErrInvalidCookie
	}
	return claims.ID, nil
}

type CookieOptions struct {
	Secure bool
}

func SetCookie(w http.ResponseWriter, value string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
