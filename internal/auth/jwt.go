// Package auth implements operator authentication for the Control
// API: a single bcrypt-hashed passphrase (no multi-user directory --
// this is an operator console, not a tenant system) exchanged for a
// short-lived JWT access token plus a longer-lived refresh token.
//
// Grounded on internal/services/user_service.go's bcrypt
// hash-compare-then-issue-tokens flow and internal/auth/jwt.go's
// access/refresh claim pair, collapsed from a DB-backed user table
// down to the single operator identity the Control API needs.
package auth

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	jwtSecret     []byte
	refreshSecret []byte
	once          sync.Once
)

func initSecrets() {
	once.Do(func() {
		jwtSecret = []byte(os.Getenv("JWT_SECRET"))
		refreshSecret = []byte(os.Getenv("JWT_REFRESH_SECRET"))

		if len(jwtSecret) == 0 {
			log.Println("[AUTH][WARN] JWT_SECRET unset; using an insecure fallback")
			jwtSecret = []byte("fallback-secret-change-me")
		}
		if len(refreshSecret) == 0 {
			refreshSecret = jwtSecret
		}
	})
}

// Claims is the access-token payload. There is one operator identity,
// so the subject is just a fixed label rather than a numeric user id.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// HashPassphrase bcrypt-hashes the operator passphrase for storage in
// config (e.g. OPERATOR_PASSPHRASE_HASH).
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassphrase compares a candidate passphrase against the
// configured hash.
func CheckPassphrase(hash, candidate string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

// GenerateJWT issues a 15-minute access token for the operator.
func GenerateJWT(subject string) (string, error) {
	initSecrets()
	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "agentruntime",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// GenerateRefreshToken issues a 7-day refresh token for the operator.
func GenerateRefreshToken(subject string) (string, error) {
	initSecrets()
	claims := &RefreshClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "agentruntime",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(refreshSecret)
}

// ValidateJWT parses and validates an access token.
func ValidateJWT(tokenStr string) (*Claims, error) {
	initSecrets()
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid access token")
}

// ValidateRefreshToken parses and validates a refresh token.
func ValidateRefreshToken(tokenStr string) (*RefreshClaims, error) {
	initSecrets()
	token, err := jwt.ParseWithClaims(tokenStr, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return refreshSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*RefreshClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid refresh token")
}

// Login validates passphraseHash (the configured operator hash)
// against candidate and, on success, issues an access/refresh pair.
func Login(passphraseHash, candidate string) (accessToken, refreshToken string, err error) {
	if err = CheckPassphrase(passphraseHash, candidate); err != nil {
		return "", "", errors.New("invalid passphrase")
	}
	if accessToken, err = GenerateJWT("operator"); err != nil {
		return "", "", err
	}
	if refreshToken, err = GenerateRefreshToken("operator"); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func Refresh(refreshToken string) (string, error) {
	claims, err := ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}
	return GenerateJWT(claims.Subject)
}
