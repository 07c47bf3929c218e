package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 30 * 24 * time.Hour

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	HouseholdID int64  `json:"household_id"`
	jwt.RegisteredClaims
}

// Tokens mints and verifies the HS256 bearer tokens that stand in for
// sessions; there is no server-side session state.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

func (t *Tokens) Mint(participantID int64, role, name string, householdID int64) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role:        role,
		Name:        name,
		HouseholdID: householdID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", participantID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token and returns the caller identity.
func (t *Tokens) Verify(tokenString string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	var participantID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &participantID); err != nil {
		return Identity{}, fmt.Errorf("parse subject: %w", err)
	}

	return Identity{
		ParticipantID: participantID,
		HouseholdID:   claims.HouseholdID,
		Role:          claims.Role,
		Name:          claims.Name,
	}, nil
}
