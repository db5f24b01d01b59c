package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
	"github.com/userrole/auth-api/internal/infrastructure/db/memory"
)

func newAuthSvc(store *memory.Store) *AuthService {
	return NewAuthService(store.Users(), store.Roles(), NewTokenService("secret"), newTestHasher(), nil, discardLogger)
}

func TestAuthService_Signup_Success(t *testing.T) {
	store := seededStore()
	svc := newAuthSvc(store)

	user, err := svc.Signup(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.PasswordHash == "pw1" {
		t.Fatalf("expected password to be hashed")
	}
	if !svc.hasher.Matches(user.PasswordHash, "pw1") {
		t.Fatalf("stored hash does not match password")
	}

	stored, err := store.Users().FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("user not retrievable: %v", err)
	}
	if !stored.HasRole(domain.RoleUser) {
		t.Fatalf("expected default role, got %+v", stored.Role)
	}
	if stored.PasswordHash == "pw1" {
		t.Fatalf("plaintext password persisted")
	}
}

func TestAuthService_Signup_DefaultRoleMissing(t *testing.T) {
	store := memory.NewStore()
	_, _ = store.Roles().Create(context.Background(), "ROLE_ADMIN")
	svc := newAuthSvc(store)

	if _, err := svc.Signup(context.Background(), "alice", "pw1"); !errors.Is(err, domain.ErrDefaultRoleMissing) {
		t.Fatalf("expected ErrDefaultRoleMissing, got %v", err)
	}

	users, _ := store.Users().List(context.Background())
	if len(users) != 0 {
		t.Fatalf("no user may be created without a role, got %d", len(users))
	}
}

func TestAuthService_Signup_Duplicate(t *testing.T) {
	svc := newAuthSvc(seededStore())

	_, _ = svc.Signup(context.Background(), "bob", "pass")
	if _, err := svc.Signup(context.Background(), "bob", "pass2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := newAuthSvc(seededStore())

	if _, err := svc.Signup(context.Background(), "", "pass"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "bob", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Signup(context.Background(), "bob", strings.Repeat("x", 100)); err == nil {
		t.Fatalf("expected bcrypt to reject passwords over 72 bytes")
	}
}

func TestAuthService_Signup_RoleLookupError(t *testing.T) {
	store := seededStore()
	svc := NewAuthService(store.Users(), &failingRoleRepo{err: errors.New("db down")}, NewTokenService("s"), newTestHasher(), nil, discardLogger)

	_, err := svc.Signup(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, domain.ErrDefaultRoleMissing) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	store := seededStore()
	svc := newAuthSvc(store)

	user, err := svc.Signup(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	token, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := NewTokenService("secret").Verify(token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != "ROLE_USER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc := newAuthSvc(seededStore())
	_, _ = svc.Signup(context.Background(), "dave", "goodpass")

	_, wrongPass := svc.Login(context.Background(), "dave", "badpass")
	_, noUser := svc.Login(context.Background(), "ghost", "goodpass")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(noUser, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPass, noUser)
	}
}

func TestAuthService_Login_StoreError(t *testing.T) {
	store := seededStore()
	svc := NewAuthService(&failingUserRepo{err: errors.New("db down")}, store.Roles(), NewTokenService("s"), newTestHasher(), nil, discardLogger)

	_, err := svc.Login(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("store errors must not look like bad credentials, got %v", err)
	}
}

func TestAuthService_Authenticate_ResolvesUser(t *testing.T) {
	store := seededStore()
	svc := newAuthSvc(store)
	user, _ := svc.Signup(context.Background(), "erin", "pw")
	token, _ := svc.Login(context.Background(), "erin", "pw")

	got, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID || got.Username != "erin" || !got.HasRole(domain.RoleUser) {
		t.Fatalf("resolved wrong identity: %+v", got)
	}
}

func TestAuthService_Authenticate_Rejects(t *testing.T) {
	store := seededStore()
	svc := newAuthSvc(store)
	user, _ := svc.Signup(context.Background(), "frank", "pw")
	token, _ := svc.Login(context.Background(), "frank", "pw")

	foreign, _ := NewTokenService("another-key").Issue(user.ID, "ROLE_USER")
	if _, err := svc.Authenticate(context.Background(), foreign); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("foreign key: expected ErrUnauthenticated, got %v", err)
	}

	_ = store.Users().Delete(context.Background(), user.ID)
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("vanished user: expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_Authenticate_StoreErrorIsNotUnauthenticated(t *testing.T) {
	store := seededStore()
	tokens := NewTokenService("secret")
	svc := NewAuthService(&failingUserRepo{err: errors.New("db down")}, store.Roles(), tokens, newTestHasher(), nil, discardLogger)
	token, _ := tokens.Issue(1, "ROLE_USER")

	_, err := svc.Authenticate(context.Background(), token)
	if err == nil || errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestAuthService_Authenticate_UsesCache(t *testing.T) {
	store := seededStore()
	cache := newRecordingCache()
	svc := NewAuthService(store.Users(), store.Roles(), NewTokenService("secret"), newTestHasher(), cache, discardLogger)
	_, _ = svc.Signup(context.Background(), "gina", "pw")
	token, _ := svc.Login(context.Background(), "gina", "pw")

	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate(context.Background(), token); err != nil {
			t.Fatalf("authenticate %d: %v", i, err)
		}
	}
	if cache.fills != 1 {
		t.Fatalf("expected a single cache fill, got %d", cache.fills)
	}
}

func TestAuthService_Authenticate_CacheErrorFallsBack(t *testing.T) {
	store := seededStore()
	cache := newRecordingCache()
	cache.getErr = errors.New("redis timeout")
	svc := NewAuthService(store.Users(), store.Roles(), NewTokenService("secret"), newTestHasher(), cache, discardLogger)
	_, _ = svc.Signup(context.Background(), "hank", "pw")
	token, _ := svc.Login(context.Background(), "hank", "pw")

	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("cache failure must not fail authentication: %v", err)
	}
}

func TestAuthService_Authenticate_DeleteDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	cache := newRecordingCache()
	tokens := NewTokenService("secret")
	hasher := newTestHasher()

	users := newPausingUserRepo(store.Users())
	auth := NewAuthService(users, store.Roles(), tokens, hasher, cache, discardLogger)
	admin := NewUserService(store.Users(), store.Roles(), hasher, cache, discardLogger)

	alice, err := admin.Create(ctx, ports.CreateUserInput{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	token, _ := tokens.Issue(alice.ID, "ROLE_USER")

	done := make(chan error, 1)
	go func() {
		_, err := auth.Authenticate(ctx, token)
		done <- err
	}()

	<-users.loaded
	if err := admin.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(users.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight authenticate: %v", err)
	}

	if cache.rejected != 1 {
		t.Fatalf("expected the stale fill to be rejected, got %d rejections", cache.rejected)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("deleted user: expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_Authenticate_RenameDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	cache := newRecordingCache()
	tokens := NewTokenService("secret")
	hasher := newTestHasher()

	users := newPausingUserRepo(store.Users())
	auth := NewAuthService(users, store.Roles(), tokens, hasher, cache, discardLogger)
	admin := NewUserService(store.Users(), store.Roles(), hasher, cache, discardLogger)
	roles := NewRoleService(store.Roles(), cache, discardLogger)

	bob, err := admin.Create(ctx, ports.CreateUserInput{Username: "bob", Password: "pw"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	token, _ := tokens.Issue(bob.ID, "ROLE_USER")

	done := make(chan error, 1)
	go func() {
		_, err := auth.Authenticate(ctx, token)
		done <- err
	}()

	<-users.loaded
	if _, err := roles.Update(ctx, bob.RoleID, "ROLE_MEMBER"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	close(users.release)
	if err := <-done; err != nil {
		t.Fatalf("in-flight authenticate: %v", err)
	}

	got, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Role == nil || got.Role.Name != "ROLE_MEMBER" {
		t.Fatalf("expected renamed role, got %+v", got.Role)
	}
}
