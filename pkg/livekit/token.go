// Package livekit signs access tokens for the hosted LiveKit media service.
// Tokens are HS256 JWTs keyed by the project's API key/secret pair and carry
// a "video" grant describing what the holder may do in a room.
package livekit

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrMissingCredentials = errors.New("livekit: api key and secret are required")

const defaultTokenTTL = 6 * time.Hour

// VideoGrant mirrors the media service's room permissions. Publish and
// subscribe are pointers so an explicit false survives serialization.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

type Claims struct {
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
	jwt.RegisteredClaims
}

// AccessRequest describes a single participant joining a single room.
type AccessRequest struct {
	Identity   string
	Name       string
	Room       string
	CanPublish bool
}

type TokenSigner struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenSigner(apiKey, apiSecret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenSigner{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Sign returns a room-join token for req. Subscribing is always granted.
func (s *TokenSigner) Sign(req AccessRequest) (string, error) {
	if s.apiKey == "" || s.apiSecret == "" {
		return "", ErrMissingCredentials
	}

	canPublish := req.CanPublish
	canSubscribe := true
	now := s.now()
	claims := Claims{
		Name: req.Name,
		Video: &VideoGrant{
			RoomJoin:     true,
			Room:         req.Room,
			CanPublish:   &canPublish,
			CanSubscribe: &canSubscribe,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.apiKey,
			Subject:   req.Identity,
			ID:        req.Identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.apiSecret))
	if err != nil {
		return "", fmt.Errorf("livekit: sign token: %w", err)
	}
	return token, nil
}

// Verify parses a token produced by Sign with the same credentials.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	if s.apiKey == "" || s.apiSecret == "" {
		return nil, ErrMissingCredentials
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.apiSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("livekit: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("livekit: invalid token")
	}
	if claims.Issuer != s.apiKey {
		return nil, fmt.Errorf("livekit: unexpected issuer %q", claims.Issuer)
	}
	return claims, nil
}
