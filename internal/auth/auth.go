package auth

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/talkspace/backend/internal/models"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the resolved principal for one connection or request. A failed
// or absent credential resolves to the anonymous identity, never to an error.
type Identity struct {
	UserID         string
	Username       string
	FirstName      string
	LastName       string
	ProfilePicture string
	Anonymous      bool
}

// Anonymous is the identity used when no valid credential is presented.
func Anonymous() Identity {
	return Identity{Anonymous: true}
}

// UserLookup resolves a user ID to an account record.
type UserLookup interface {
	GetUser(id string) (*models.User, error)
}

// Claims are the custom claims carried in access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator resolves bearer tokens to identities. Every failure mode -
// malformed token, bad signature, expiry, unknown user, deactivated account -
// is swallowed and mapped to anonymous; the session decides whether anonymous
// access is permitted for the requested room.
type Authenticator struct {
	secret []byte
	issuer string
	users  UserLookup
}

// NewAuthenticator creates an Authenticator verifying HS256 tokens signed with
// secret and resolving user IDs through users.
func NewAuthenticator(secret, issuer string, users UserLookup) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, users: users}
}

// Resolve maps a token string to an identity. An empty token or any
// verification failure yields the anonymous identity.
func (a *Authenticator) Resolve(token string) Identity {
	if token == "" {
		return Anonymous()
	}

	claims, err := a.parse(token)
	if err != nil {
		log.Printf("[Auth] Token rejected: %v", err)
		return Anonymous()
	}

	user, err := a.users.GetUser(claims.UserID)
	if err != nil {
		log.Printf("[Auth] No account for token subject %s", claims.UserID)
		return Anonymous()
	}
	if !user.IsActive {
		log.Printf("[Auth] Account %s is deactivated", user.ID)
		return Anonymous()
	}

	return Identity{
		UserID:         user.ID,
		Username:       user.Username,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: user.ProfilePicture,
	}
}

func (a *Authenticator) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if a.issuer != "" && claims.Issuer != a.issuer {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs an access token for userID. The login service is the normal
// issuer; this exists for provisioning and tests.
func (a *Authenticator) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
