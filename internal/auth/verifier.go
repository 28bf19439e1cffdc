package auth

import (
	"errors"
	"fmt"

	"chatsphere/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Verifier checks a bearer credential and yields the identity it encodes.
// The single implementation below is the only verification path; handshake
// and everything behind it go through it.
type Verifier interface {
	Verify(token string) (*models.Claims, error)
}

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(tokenString string) (*models.Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := (*claims)["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}
	username, _ := (*claims)["username"].(string)

	return &models.Claims{UserID: userID, Username: username}, nil
}

// GuestClaims mints an anonymous identity for permissive mode.
func GuestClaims() *models.Claims {
	id := uuid.New().String()
	return &models.Claims{
		UserID:    "guest-" + id[:8],
		Username:  "Anonymous",
		Anonymous: true,
	}
}
