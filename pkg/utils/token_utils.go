package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"ecocollect/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateSecureToken creates a random, URL-safe string.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// orderCodeAlphabet excludes nothing fancy; the code is a convenience
// identifier for humans, uniqueness is enforced by the database.
const orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderCode builds a human-readable order code of the form
// ORD-YYMMDD-XXXXXX with a random six-character suffix.
func GenerateOrderCode(now time.Time) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	for i := range b {
		b[i] = orderCodeAlphabet[int(b[i])%len(orderCodeAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("060102"), string(b)), nil
}

// GenerateJWT signs an access token carrying the user's ID, email and role.
func GenerateJWT(userID, email string, role models.Role, secret string, ttl time.Duration) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("utils.GenerateJWT: %w", err)
	}
	return signed, nil
}
