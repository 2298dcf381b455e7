package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rgarciadev/atelier-backend/pkg/config"
	"github.com/rgarciadev/atelier-backend/pkg/types"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintGuestToken issues a signed JWT for a fresh anonymous guest identity.
// Registered-user tokens are minted by the external auth service; this API
// only mints guest identities so unauthenticated carts survive requests.
func MintGuestToken(cfg config.JWTConfig, now time.Time, guestID uuid.UUID) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if guestID == uuid.Nil {
		return "", fmt.Errorf("guest id is required")
	}

	ttl := cfg.GuestTTL()
	if ttl <= 0 {
		return "", fmt.Errorf("guest token ttl must be positive")
	}

	claims := AccessTokenClaims{
		SubjectID:   guestID,
		SubjectKind: SubjectGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// Owner converts validated claims into the typed Owner union.
func (c *AccessTokenClaims) Owner() (types.Owner, error) {
	if c == nil {
		return types.Owner{}, fmt.Errorf("nil claims")
	}
	switch c.SubjectKind {
	case SubjectUser:
		owner := types.UserOwner(c.SubjectID)
		return owner, owner.Validate()
	case SubjectGuest:
		owner := types.GuestOwner(c.SubjectID)
		return owner, owner.Validate()
	}
	return types.Owner{}, fmt.Errorf("unknown subject kind %q", c.SubjectKind)
}
