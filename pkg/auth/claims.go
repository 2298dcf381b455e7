package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Subject kinds carried in the token's "kind" claim.
const (
	SubjectUser  = "user"
	SubjectGuest = "guest"
)

// AccessTokenClaims represents the typed JWT issued to registered users by
// the (external) auth service and to guests by this API.
type AccessTokenClaims struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectKind string    `json:"kind"`
	jwt.RegisteredClaims
}
