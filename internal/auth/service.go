// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth issues operator tokens for the admin endpoints.

There is a single operator whose username and bcrypt hash come from the
environment. A successful login returns a short-lived JWT carrying the admin
role, which [middleware.Authenticate] and [middleware.RequireRole] check on the
key management routes.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/sec"
	"github.com/taibuivan/aihub/internal/platform/validate"
)

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// Operator is the configured admin identity.
type Operator struct {
	Username     string
	PasswordHash string
}

// Service implements operator login.
type Service struct {
	operator      Operator
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// NewService constructs a new [Service].
func NewService(operator Operator, tokenProvider TokenProvider, logger *slog.Logger) *Service {
	return &Service{operator: operator, tokenProvider: tokenProvider, logger: logger}
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is a successfully issued operator token.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
}

/*
Login validates operator credentials and issues an access token.

Returns:
  - *Session: The signed token and its expiry
  - error: validation_error for empty fields, [apperr.Unauthorized] for bad credentials
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	input.Username = strings.TrimSpace(input.Username)

	validator := &validate.Validator{}
	validator.Required("username", input.Username).Required("password", input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Both checks always run so a wrong username costs the same as a wrong password
	usernameOK := input.Username == service.operator.Username
	passwordOK := sec.CheckPasswordHash(input.Password, service.operator.PasswordHash)
	if !usernameOK || !passwordOK {
		service.logger.WarnContext(context, "operator_login_failed", slog.String("username", input.Username))
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	role := string(sec.RoleAdmin)
	token, err := service.tokenProvider.GenerateAccessToken(service.operator.Username, service.operator.Username, role, constants.OperatorTokenTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_token_generation_failed: %w", err))
	}

	service.logger.InfoContext(context, "operator_login", slog.String("username", input.Username))
	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(constants.OperatorTokenTTL).UTC(),
		Username:    service.operator.Username,
		Role:        role,
	}, nil
}
