// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/aihub/internal/platform/ctxutil"
	"github.com/taibuivan/aihub/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that AuthClaims can be stored in context.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	claims := &sec.AuthClaims{
		UserID: "operator-1",
		Role:   "admin",
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthUser(ctx, claims)
	retrieved := ctxutil.GetAuthUser(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "operator-1", retrieved.UserID)
	assert.Equal(t, "admin", retrieved.Role)
}

/*
TestContext_KeyPrincipal verifies that the gateway principal round-trips through context.
*/
func TestContext_KeyPrincipal(t *testing.T) {
	ctx := context.Background()

	// 1. Anonymous requests carry no principal
	assert.Nil(t, ctxutil.GetKeyPrincipal(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithKeyPrincipal(ctx, &sec.KeyPrincipal{KeyID: 7, Name: "partner"})
	principal := ctxutil.GetKeyPrincipal(ctx)

	if assert.NotNil(t, principal) {
		assert.Equal(t, int64(7), principal.KeyID)
		assert.Equal(t, "partner", principal.Name)
	}
}
