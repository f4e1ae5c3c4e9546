// Package session 签发与校验匿名会话令牌。每个会话对应一份独立的简历 Store。
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "buildmecv"

// Claims 表示会话令牌中的业务字段。
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Token is a freshly issued session handle.
type Token struct {
	Value     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service 负责会话令牌的生成与校验（HS256）。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService validates the secret and returns a service.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL 暴露令牌有效期，用于设置 Cookie。
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a new session and its signed token.
func (s *Service) Issue() (Token, error) {
	now := s.now()
	sid := uuid.NewString()
	claims := Claims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sid,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, SessionID: sid, ExpiresAt: now.Add(s.ttl)}, nil
}

// Validate 解析并验证令牌，返回其中的会话 ID。
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
