package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/daruyar/daruyar_backend/config"
	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/email"
	pasetotoken "github.com/daruyar/daruyar_backend/pkg/paseto"
	"github.com/daruyar/daruyar_backend/pkg/util/otp"
	"github.com/daruyar/daruyar_backend/pkg/util/password"
)

type fakeUserStore struct {
	byID    map[uuid.UUID]*store.User
	byEmail map[string]*store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*store.User),
		byEmail: make(map[string]*store.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, u *store.User) error {
	if _, exists := f.byEmail[u.Email]; exists {
		return store.ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = "active"
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*store.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, addr string) (*store.User, error) {
	u, ok := f.byEmail[addr]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByOAuth(_ context.Context, provider, subject string) (*store.User, error) {
	for _, u := range f.byID {
		if u.OAuthProvider != nil && *u.OAuthProvider == provider &&
			u.OAuthSubject != nil && *u.OAuthSubject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) LinkOAuth(_ context.Context, id uuid.UUID, provider, subject string) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.OAuthProvider = &provider
	u.OAuthSubject = &subject
	return nil
}

func (f *fakeUserStore) SetEmailVerified(_ context.Context, id uuid.UUID) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.EmailVerified = true
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	return nil
}

type fakeMailer struct {
	sent []email.Message
}

func (f *fakeMailer) Send(_ context.Context, m email.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

// testPasswordCfg keeps argon2 cheap enough for unit tests.
func testPasswordCfg() config.PasswordConfig {
	return config.PasswordConfig{
		Algorithm:   "argon2id",
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type authFixture struct {
	svc    Service
	users  *fakeUserStore
	mailer *fakeMailer
	mr     *miniredis.Miniredis
	paseto *pasetotoken.Manager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mgr, err := pasetotoken.New(pasetotoken.Config{
		Mode:       pasetotoken.ModeLocal,
		Issuer:     "daruyar",
		Audience:   "daruyar-app",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	}, pasetotoken.NewLocalKeys())
	if err != nil {
		t.Fatalf("paseto manager: %v", err)
	}

	users := newFakeUserStore()
	mailer := &fakeMailer{}
	cfg := &config.Config{
		Password: testPasswordCfg(),
		Authentication: config.AuthenticationConfig{
			VerificationTTLMinutes: 15,
			ResetTokenTTLMinutes:   30,
		},
		Server: config.ServerConfig{Domain: "https://daruyar.ir"},
	}

	return &authFixture{
		svc:    New(users, rdb, mailer, mgr, cfg),
		users:  users,
		mailer: mailer,
		mr:     mr,
		paseto: mgr,
	}
}

// seedUser inserts a verified user with the given password and returns it.
func (fx *authFixture) seedUser(t *testing.T, addr, pw string) *store.User {
	t.Helper()
	params := password.FromCentralConfig(testPasswordCfg()).ToParams()
	hash, err := password.HashWithParams(pw, params)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &store.User{Email: addr, PasswordHash: &hash, FullName: "کاربر", EmailVerified: true}
	if err := fx.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedUser(t, "ali@example.com", "correct-horse1")
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := fx.svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "wrong-password"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Even the right password bounces once the counter hits the cap.
	if _, err := fx.svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "correct-horse1"}); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("locked login err = %v, want ErrAccountLocked", err)
	}

	// The lock wears off with the counter's TTL.
	fx.mr.FastForward(accountLockMins*time.Minute + time.Second)
	if _, err := fx.svc.Login(ctx, LoginRequest{Email: "ali@example.com", Password: "correct-horse1"}); err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
}

func TestSuccessfulLoginClearsFailureCounter(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedUser(t, "sara@example.com", "top-secret-pw")
	ctx := context.Background()

	if _, err := fx.svc.Login(ctx, LoginRequest{Email: "sara@example.com", Password: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if !fx.mr.Exists(redisKeyLoginAttempts("sara@example.com")) {
		t.Fatal("failed login must record an attempt")
	}

	if _, err := fx.svc.Login(ctx, LoginRequest{Email: "sara@example.com", Password: "top-secret-pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if fx.mr.Exists(redisKeyLoginAttempts("sara@example.com")) {
		t.Error("successful login must clear the failure counter")
	}
}

func TestVerifyEmailAttemptCap(t *testing.T) {
	fx := newAuthFixture(t)
	fx.users.Create(context.Background(), &store.User{Email: "nima@example.com", FullName: "نیما"})
	ctx := context.Background()

	fx.mr.Set(redisKeyVerify("nima@example.com"), otp.Hash("123456"))
	fx.mr.Set(redisKeyVerifyAttempts("nima@example.com"), "0")

	for i := 0; i < maxCodeAttempts; i++ {
		_, err := fx.svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "nima@example.com", Code: "000000"})
		if !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d err = %v, want ErrCodeInvalid", i+1, err)
		}
	}

	// Once capped, even the correct code is refused.
	if _, err := fx.svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "nima@example.com", Code: "123456"}); !errors.Is(err, ErrCodeMaxAttempts) {
		t.Fatalf("capped err = %v, want ErrCodeMaxAttempts", err)
	}
}

func TestVerifyEmailHappyPath(t *testing.T) {
	fx := newAuthFixture(t)
	u := &store.User{Email: "mina@example.com", FullName: "مینا"}
	fx.users.Create(context.Background(), u)
	ctx := context.Background()

	fx.mr.Set(redisKeyVerify("mina@example.com"), otp.Hash("654321"))
	fx.mr.Set(redisKeyVerifyAttempts("mina@example.com"), "0")

	tokens, err := fx.svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "mina@example.com", Code: "654321"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("verification must return a session token pair")
	}
	if got, _ := fx.users.GetByID(ctx, u.ID); !got.EmailVerified {
		t.Error("verification must mark the email verified")
	}
	if fx.mr.Exists(redisKeyVerify("mina@example.com")) {
		t.Error("used verification code must be deleted")
	}

	// The code is single-use.
	if _, err := fx.svc.VerifyEmail(ctx, VerifyEmailRequest{Email: "mina@example.com", Code: "654321"}); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("reuse err = %v, want ErrCodeExpired", err)
	}
}

func TestRefreshSlidesSessionExpiry(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedUser(t, "reza@example.com", "strong-enough")
	ctx := context.Background()

	tokens, err := fx.svc.Login(ctx, LoginRequest{Email: "reza@example.com", Password: "strong-enough"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := fx.paseto.Verify(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	sessionKey := redisKeySession(claims.SessionID.String())

	// Pretend most of the session lifetime has passed.
	fx.mr.SetTTL(sessionKey, time.Minute)

	refreshed, err := fx.svc.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken != tokens.RefreshToken {
		t.Error("refresh must issue a new access token and keep the refresh token")
	}
	if got := fx.mr.TTL(sessionKey); got != fx.paseto.RefreshTTL() {
		t.Errorf("session TTL after refresh = %v, want %v", got, fx.paseto.RefreshTTL())
	}

	// An access token is not a refresh token.
	if _, err := fx.svc.RefreshTokens(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access-token refresh err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedUser(t, "omid@example.com", "strong-enough")
	ctx := context.Background()

	tokens, err := fx.svc.Login(ctx, LoginRequest{Email: "omid@example.com", Password: "strong-enough"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := fx.paseto.Verify(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}

	if err := fx.svc.Logout(ctx, *claims.SessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := fx.svc.RefreshTokens(ctx, tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("refresh after logout err = %v, want ErrSessionNotFound", err)
	}

	// Logging out twice is harmless.
	if err := fx.svc.Logout(ctx, *claims.SessionID); err != nil {
		t.Errorf("second logout: %v", err)
	}
}

func TestResetPasswordFlow(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.seedUser(t, "negar@example.com", "old-password1")
	ctx := context.Background()

	fx.mr.Set(redisKeyReset("reset-token"), u.ID.String())

	if err := fx.svc.ResetPassword(ctx, "reset-token", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short password err = %v, want ErrPasswordTooShort", err)
	}

	if err := fx.svc.ResetPassword(ctx, "reset-token", "new-password1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, _ := fx.users.GetByID(ctx, u.ID)
	if err := password.Verify(*got.PasswordHash, "new-password1"); err != nil {
		t.Errorf("new password must verify against the stored hash: %v", err)
	}

	// The token is single-use.
	if err := fx.svc.ResetPassword(ctx, "reset-token", "another-pass1"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("reuse err = %v, want ErrResetTokenInvalid", err)
	}
	if err := fx.svc.ResetPassword(ctx, "never-issued", "another-pass1"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("unknown token err = %v, want ErrResetTokenInvalid", err)
	}
}
