// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aihub/internal/auth"
	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/sec"
)

type issuedToken struct {
	userID, username, role string
	ttl                    time.Duration
}

type fakeTokens struct {
	issued []issuedToken
	err    error
}

func (tokens *fakeTokens) GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error) {
	if tokens.err != nil {
		return "", tokens.err
	}
	tokens.issued = append(tokens.issued, issuedToken{userID, username, role, timeToLive})
	return "signed." + username, nil
}

func newService(t *testing.T, tokens *fakeTokens) *auth.Service {
	t.Helper()
	hash, err := sec.HashPassword("s3cret-pass")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewService(auth.Operator{Username: "admin", PasswordHash: hash}, tokens, logger)
}

func TestLogin_Success(t *testing.T) {
	tokens := &fakeTokens{}
	service := newService(t, tokens)

	session, err := service.Login(context.Background(), auth.LoginInput{Username: " admin ", Password: "s3cret-pass"})
	require.NoError(t, err)

	assert.Equal(t, "signed.admin", session.AccessToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, string(sec.RoleAdmin), session.Role)
	assert.WithinDuration(t, time.Now().Add(constants.OperatorTokenTTL), session.ExpiresAt, time.Minute)

	require.Len(t, tokens.issued, 1)
	assert.Equal(t, issuedToken{"admin", "admin", "admin", constants.OperatorTokenTTL}, tokens.issued[0])
}

func TestLogin_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input auth.LoginInput
		code  string
	}{
		{name: "empty", input: auth.LoginInput{}, code: apperr.CodeValidation},
		{name: "no password", input: auth.LoginInput{Username: "admin"}, code: apperr.CodeValidation},
		{name: "wrong password", input: auth.LoginInput{Username: "admin", Password: "nope"}, code: apperr.CodeUnauthorized},
		{name: "wrong username", input: auth.LoginInput{Username: "root", Password: "s3cret-pass"}, code: apperr.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &fakeTokens{}
			_, err := newService(t, tokens).Login(context.Background(), tt.input)

			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, tokens.issued)
		})
	}
}

func TestLogin_SigningFailure(t *testing.T) {
	service := newService(t, &fakeTokens{err: errors.New("no key")})

	_, err := service.Login(context.Background(), auth.LoginInput{Username: "admin", Password: "s3cret-pass"})
	assert.True(t, apperr.HasCode(err, apperr.CodeInternal))
}

func TestHandler_Login(t *testing.T) {
	router := auth.NewHandler(newService(t, &fakeTokens{})).Routes()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "ok", body: `{"username":"admin","password":"s3cret-pass"}`, status: http.StatusOK},
		{name: "bad credentials", body: `{"username":"admin","password":"x"}`, status: http.StatusUnauthorized},
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.status, recorder.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				data := body["data"].(map[string]any)
				assert.Equal(t, "signed.admin", data["access_token"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}
