//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tipgrid/tipgrid/internal/model"
	"github.com/tipgrid/tipgrid/internal/testutil"
)

// ============================================================================
// API Key Repository Integration Tests
// ============================================================================

func TestIntegrationAPIKeyRepository_CreateAPIKey(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	userID := testutil.UniqueID("user")
	key := testutil.NewTestAPIKey(t, userID)

	err := repo.CreateAPIKey(ctx, key)
	if err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}

	if retrieved.UserID != userID {
		t.Errorf("UserID mismatch: got %q, want %q", retrieved.UserID, userID)
	}
	if retrieved.KeyHash != key.KeyHash {
		t.Errorf("KeyHash mismatch: got %q, want %q", retrieved.KeyHash, key.KeyHash)
	}
	if retrieved.RateLimitTier != model.TierFree {
		t.Errorf("RateLimitTier mismatch: got %q, want %q", retrieved.RateLimitTier, model.TierFree)
	}
}

func TestIntegrationAPIKeyRepository_GetByID_NotFound(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	_, err := repo.GetAPIKeyByID(ctx, "nonexistent-key-id")
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("Expected ErrAPIKeyNotFound, got: %v", err)
	}
}

func TestIntegrationAPIKeyRepository_GetByPrefix_ExcludesRevoked(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	userID := testutil.UniqueID("user")
	prefix := "tg_live_abc123_"

	active := testutil.NewTestAPIKey(t, userID)
	active.KeyPrefix = prefix
	time.Sleep(1 * time.Millisecond)
	revoked := testutil.NewTestAPIKey(t, userID)
	revoked.KeyPrefix = prefix

	if err := repo.CreateAPIKey(ctx, active); err != nil {
		t.Fatalf("CreateAPIKey (active) failed: %v", err)
	}
	if err := repo.CreateAPIKey(ctx, revoked); err != nil {
		t.Fatalf("CreateAPIKey (revoked) failed: %v", err)
	}
	if err := repo.RevokeAPIKey(ctx, revoked.ID); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}

	keys, err := repo.GetAPIKeysByPrefix(ctx, prefix)
	if err != nil {
		t.Fatalf("GetAPIKeysByPrefix failed: %v", err)
	}

	if len(keys) != 1 {
		t.Fatalf("Expected 1 active key, got %d", len(keys))
	}
	if keys[0].ID != active.ID {
		t.Errorf("Expected active key %q, got %q", active.ID, keys[0].ID)
	}
}

func TestIntegrationAPIKeyRepository_ListByUserID(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	userID := testutil.UniqueID("user")
	otherUserID := testutil.UniqueID("other")

	mine := testutil.NewTestAPIKey(t, userID)
	time.Sleep(1 * time.Millisecond)
	theirs := testutil.NewTestAPIKey(t, otherUserID)

	if err := repo.CreateAPIKey(ctx, mine); err != nil {
		t.Fatalf("CreateAPIKey (mine) failed: %v", err)
	}
	if err := repo.CreateAPIKey(ctx, theirs); err != nil {
		t.Fatalf("CreateAPIKey (theirs) failed: %v", err)
	}

	keys, err := repo.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("ListAPIKeysByUserID failed: %v", err)
	}

	if len(keys) != 1 {
		t.Fatalf("Expected 1 key for user, got %d", len(keys))
	}
	if keys[0].UserID != userID {
		t.Errorf("UserID mismatch: got %q, want %q", keys[0].UserID, userID)
	}
}

func TestIntegrationAPIKeyRepository_RevokeAPIKey(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	key := testutil.NewTestAPIKey(t, testutil.UniqueID("user"))
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	if err := repo.RevokeAPIKey(ctx, key.ID); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}
	if !retrieved.IsRevoked() {
		t.Error("key should be revoked")
	}

	// Revoking twice is an error since the key is no longer active.
	err = repo.RevokeAPIKey(ctx, key.ID)
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("Expected ErrAPIKeyNotFound on double revoke, got: %v", err)
	}
}

func TestIntegrationAPIKeyRepository_UpdateLastUsed(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	key := testutil.NewTestAPIKey(t, testutil.UniqueID("user"))
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	if err := repo.UpdateAPIKeyLastUsed(ctx, key.ID); err != nil {
		t.Fatalf("UpdateAPIKeyLastUsed failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}
	if retrieved.LastUsedAt == nil {
		t.Error("LastUsedAt should be set")
	}
}

// ============================================================================
// User Repository Integration Tests
// ============================================================================

func TestIntegrationUserRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	user := &model.User{
		ID:        testutil.UniqueID("user"),
		Email:     testutil.UniqueID("artist") + "@tipgrid.local",
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != user.Email {
		t.Errorf("Email mismatch: got %q, want %q", byID.Email, user.Email)
	}

	byEmail, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", byEmail.ID, user.ID)
	}
}

func TestIntegrationUserRepository_GetOrCreateUser(t *testing.T) {
	ctx, repo := newAPIKeyTestEnv(t)

	user := &model.User{
		ID:        testutil.UniqueID("user"),
		Email:     testutil.UniqueID("artist") + "@tipgrid.local",
		CreatedAt: time.Now().UTC(),
	}

	first, err := repo.GetOrCreateUser(ctx, user)
	if err != nil {
		t.Fatalf("GetOrCreateUser (first) failed: %v", err)
	}

	second, err := repo.GetOrCreateUser(ctx, user)
	if err != nil {
		t.Fatalf("GetOrCreateUser (second) failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("GetOrCreateUser should be idempotent: %q != %q", first.ID, second.ID)
	}
}

// ============================================================================
// Test Environment
// ============================================================================

func newAPIKeyTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetUsersSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset users schema: %v", err)
	}
	if err := testutil.ResetAPIKeysSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset api_keys schema: %v", err)
	}

	return ctx, repo
}
