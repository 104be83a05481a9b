// Package auth is the single-owner login: one bcrypt password hash in config,
// HS256 bearer tokens for the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"focusdesk/pkg/clock"
	"focusdesk/pkg/config"
	"focusdesk/pkg/logger"
	"focusdesk/pkg/util"
)

// Subject is the only principal there is.
const Subject = "owner"

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrDisabled           = errors.New("authentication is disabled")
)

type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Service struct {
	cfg    config.AuthConfig
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(cfg config.AuthConfig, clk clock.Clock, logger *zap.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{cfg: cfg, clock: clk, logger: logger}
}

func (s *Service) Enabled() bool {
	return s.cfg.Enabled
}

// Login checks password against the configured hash and returns a token.
func (s *Service) Login(ctx context.Context, password string) (Token, error) {
	if !s.cfg.Enabled {
		return Token{}, ErrDisabled
	}
	log := logger.WithTrace(ctx, s.logger)
	if !util.CheckPassword(password, s.cfg.PasswordHash) {
		log.Warn("Login failed")
		return Token{}, ErrInvalidCredentials
	}

	now := s.clock.Now()
	tok, err := util.GenerateJWT(Subject, s.cfg.JWTSecret, s.cfg.TokenTTL, now)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	log.Info("Owner logged in")
	return Token{AccessToken: tok, ExpiresAt: now.Add(s.cfg.TokenTTL)}, nil
}

// Verify returns the subject of a valid token.
func (s *Service) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	sub, err := util.ParseJWT(token, s.cfg.JWTSecret, s.clock.Now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if sub != Subject {
		return "", ErrInvalidToken
	}
	return sub, nil
}
