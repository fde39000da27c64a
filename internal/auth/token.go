package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload: the caller's user id and role plus the
// registered claims (jti, exp).
type Claims struct {
	UserID int64       `json:"id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

func (p *TokenParser) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing id or role", ErrInvalidToken)
	}
	return claims, nil
}

// Issue signs a token for actor. Login lives elsewhere; this is used by
// tooling and tests that need a caller.
func (p *TokenParser) Issue(actor domain.Actor, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.ID,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// TokenFromHeader accepts both "Bearer <token>" and a bare token.
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return header
}

// revocationKey identifies a token in the revocation store. Tokens issued
// without a jti are keyed by a digest of the raw token.
func revocationKey(claims *Claims, raw string) string {
	if claims.ID != "" {
		return claims.ID
	}
	sum := sha256.Sum256([]byte(raw))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// remainingLifetime is how long a revocation must be kept; tokens without
// exp fall back to def.
func remainingLifetime(claims *Claims, def time.Duration) time.Duration {
	if claims.ExpiresAt == nil {
		return def
	}
	return time.Until(claims.ExpiresAt.Time)
}
