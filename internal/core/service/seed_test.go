package service

import (
	"context"
	"errors"
	"testing"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/infrastructure/db/memory"
)

func TestSeeder_Idempotent(t *testing.T) {
	store := memory.NewStore()
	seeder := NewSeeder(store.Users(), store.Roles(), newTestHasher(), discardLogger)
	ctx := context.Background()

	first, err := seeder.Seed(ctx)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if len(first.RolesCreated) != 2 || len(first.UsersCreated) != 2 {
		t.Fatalf("first seed should create everything, got %+v", first)
	}

	second, err := seeder.Seed(ctx)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(second.RolesCreated) != 0 || len(second.UsersCreated) != 0 {
		t.Fatalf("second seed must be a no-op, got %+v", second)
	}

	roles, _ := store.Roles().List(ctx)
	if len(roles) != 2 {
		t.Fatalf("expected exactly 2 roles, got %d", len(roles))
	}
	users, _ := store.Users().List(ctx)
	if len(users) != 2 {
		t.Fatalf("expected exactly 2 users, got %d", len(users))
	}

	admin, err := store.Users().FindByUsername(ctx, "admin")
	if err != nil || !admin.HasRole(domain.RoleAdmin) {
		t.Fatalf("admin account wrong: %+v %v", admin, err)
	}
	user, err := store.Users().FindByUsername(ctx, "user")
	if err != nil || !user.HasRole(domain.RoleUser) {
		t.Fatalf("user account wrong: %+v %v", user, err)
	}
}

func TestSeeder_SeededAccountsCanLogIn(t *testing.T) {
	store := memory.NewStore()
	hasher := newTestHasher()
	if _, err := NewSeeder(store.Users(), store.Roles(), hasher, discardLogger).Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	auth := NewAuthService(store.Users(), store.Roles(), NewTokenService("secret"), hasher, nil, discardLogger)

	if _, err := auth.Login(context.Background(), "admin", "admin"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if _, err := auth.Login(context.Background(), "user", "user"); err != nil {
		t.Fatalf("user login: %v", err)
	}
}

func TestSeeder_KeepsExistingRows(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	existing, _ := store.Roles().Create(ctx, "ROLE_USER")

	if _, err := NewSeeder(store.Users(), store.Roles(), newTestHasher(), discardLogger).Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _ := store.Roles().FindByName(ctx, "ROLE_USER")
	if got.ID != existing.ID {
		t.Fatalf("existing role replaced: %d != %d", got.ID, existing.ID)
	}
}

func TestSeeder_StoreFailureAborts(t *testing.T) {
	store := memory.NewStore()
	seeder := NewSeeder(store.Users(), &failingRoleRepo{err: errors.New("db down")}, newTestHasher(), discardLogger)

	if _, err := seeder.Seed(context.Background()); err == nil {
		t.Fatal("expected seed to fail when the store is unavailable")
	}
}
