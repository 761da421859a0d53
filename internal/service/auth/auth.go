package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/daruyar/daruyar_backend/config"
	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/email"
	pasetotoken "github.com/daruyar/daruyar_backend/pkg/paseto"
	"github.com/daruyar/daruyar_backend/pkg/util/codes"
	"github.com/daruyar/daruyar_backend/pkg/util/otp"
	"github.com/daruyar/daruyar_backend/pkg/util/password"
)

const (
	maxCodeAttempts  = 5
	accountLockMins  = 15
	maxLoginAttempts = 5

	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// redisKeyVerify returns the Redis key for the verification code hash of an email.
func redisKeyVerify(email string) string { return "verify:" + email }

// redisKeyVerifyAttempts returns the Redis key for the verification attempt counter.
func redisKeyVerifyAttempts(email string) string { return "verify:attempts:" + email }

// redisKeyLoginAttempts returns the Redis key for the failed-login counter.
func redisKeyLoginAttempts(email string) string { return "login:attempts:" + email }

// redisKeySession returns the Redis key for a session.
func redisKeySession(sessionID string) string { return "session:" + sessionID }

// redisKeyReset returns the Redis key for a password reset token.
func redisKeyReset(token string) string { return "reset:" + token }

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RegisterRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string // optional
}

type VerifyEmailRequest struct {
	Email string
	Code  string
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds until access token expires
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type UserStore interface {
	Create(ctx context.Context, u *store.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
	GetByOAuth(ctx context.Context, provider, subject string) (*store.User, error)
	LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string) error
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type Mailer interface {
	Send(ctx context.Context, m email.Message) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Register(ctx context.Context, req RegisterRequest) error
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*AuthTokens, error)
	ResendVerification(ctx context.Context, emailAddr string) error
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	OAuthURL(provider, state string) (string, error)
	OAuthLogin(ctx context.Context, provider, code string) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	ForgotPassword(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type oauthProfile struct {
	Subject string
	Email   string
	Name    string
}

type oauthProvider struct {
	config      *oauth2.Config
	userInfoURL string
	parse       func([]byte) (*oauthProfile, error)
}

type authService struct {
	users      UserStore
	rdb        *redis.Client
	mailer     Mailer
	paseto     *pasetotoken.Manager
	cfg        *config.Config
	passParams *password.Params
	oauth      map[string]oauthProvider
}

func New(
	users UserStore,
	rdb *redis.Client,
	mailer Mailer,
	paseto *pasetotoken.Manager,
	cfg *config.Config,
) Service {
	return &authService{
		users:      users,
		rdb:        rdb,
		mailer:     mailer,
		paseto:     paseto,
		cfg:        cfg,
		passParams: password.FromCentralConfig(cfg.Password).ToParams(),
		oauth:      buildOAuthProviders(cfg.OAuth),
	}
}

func buildOAuthProviders(cfg config.OAuthConfig) map[string]oauthProvider {
	return map[string]oauthProvider{
		ProviderGoogle: {
			config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Endpoint:     endpoints.Google,
				Scopes:       []string{"openid", "email", "profile"},
			},
			userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			parse: func(b []byte) (*oauthProfile, error) {
				var v struct {
					ID    string `json:"id"`
					Email string `json:"email"`
					Name  string `json:"name"`
				}
				if err := json.Unmarshal(b, &v); err != nil {
					return nil, err
				}
				return &oauthProfile{Subject: v.ID, Email: v.Email, Name: v.Name}, nil
			},
		},
		ProviderGitHub: {
			config: &oauth2.Config{
				ClientID:     cfg.GitHub.ClientID,
				ClientSecret: cfg.GitHub.ClientSecret,
				RedirectURL:  cfg.GitHub.RedirectURL,
				Endpoint:     endpoints.GitHub,
				Scopes:       []string{"read:user", "user:email"},
			},
			userInfoURL: "https://api.github.com/user",
			parse: func(b []byte) (*oauthProfile, error) {
				var v struct {
					ID    int64  `json:"id"`
					Email string `json:"email"`
					Name  string `json:"name"`
					Login string `json:"login"`
				}
				if err := json.Unmarshal(b, &v); err != nil {
					return nil, err
				}
				name := v.Name
				if name == "" {
					name = v.Login
				}
				return &oauthProfile{Subject: strconv.FormatInt(v.ID, 10), Email: v.Email, Name: name}, nil
			},
		},
	}
}

func normalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func (s *authService) Register(ctx context.Context, req RegisterRequest) error {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return ErrPasswordTooShort
	}

	passHash, err := password.HashWithParams(req.Password, s.passParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &store.User{
		Email:        req.Email,
		PasswordHash: &passHash,
		FullName:     req.FullName,
	}
	if req.Phone != "" {
		u.Phone = &req.Phone
	}
	if err := s.users.Create(ctx, u); err != nil {
		if err == store.ErrDuplicate {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return s.sendVerificationCode(ctx, req.Email)
}

// ---------------------------------------------------------------------------
// VerifyEmail
// ---------------------------------------------------------------------------

func (s *authService) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*AuthTokens, error) {
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)

	codeHash, err := s.rdb.Get(ctx, redisKeyVerify(req.Email)).Result()
	if err == redis.Nil {
		return nil, ErrCodeExpired
	}
	if err != nil {
		return nil, fmt.Errorf("redis get verification code: %w", err)
	}

	attempts, _ := s.rdb.Get(ctx, redisKeyVerifyAttempts(req.Email)).Int()
	if attempts >= maxCodeAttempts {
		return nil, ErrCodeMaxAttempts
	}

	if err := otp.Verify(codeHash, req.Code); err != nil {
		s.rdb.Incr(ctx, redisKeyVerifyAttempts(req.Email))
		return nil, ErrCodeInvalid
	}

	s.rdb.Del(ctx, redisKeyVerify(req.Email), redisKeyVerifyAttempts(req.Email))

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := s.users.SetEmailVerified(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}

	return s.createSession(ctx, u.ID)
}

func (s *authService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if err == store.ErrNotFound {
			// Do not reveal whether the address is registered.
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	if u.EmailVerified {
		return nil
	}
	return s.sendVerificationCode(ctx, emailAddr)
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	req.Email = normalizeEmail(req.Email)

	attempts, _ := s.rdb.Get(ctx, redisKeyLoginAttempts(req.Email)).Int()
	if attempts >= maxLoginAttempts {
		return nil, ErrAccountLocked
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if u.Status == "suspended" {
		return nil, ErrAccountSuspended
	}
	// OAuth-only accounts have no password to check.
	if u.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := password.Verify(*u.PasswordHash, req.Password); err != nil {
		s.recordFailedLogin(ctx, req.Email)
		return nil, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	s.rdb.Del(ctx, redisKeyLoginAttempts(req.Email))

	return s.createSession(ctx, u.ID)
}

// ---------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------

func (s *authService) OAuthURL(provider, state string) (string, error) {
	p, ok := s.oauth[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.config.AuthCodeURL(state), nil
}

func (s *authService) OAuthLogin(ctx context.Context, provider, code string) (*AuthTokens, error) {
	p, ok := s.oauth[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth code exchange: %w", err)
	}

	profile, err := s.fetchProfile(ctx, p, tok)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, ErrOAuthNoEmail
	}
	profile.Email = normalizeEmail(profile.Email)

	u, err := s.users.GetByOAuth(ctx, provider, profile.Subject)
	switch {
	case err == nil:
		// Returning user.
	case err == store.ErrNotFound:
		u, err = s.linkOrCreateOAuthUser(ctx, provider, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("find oauth user: %w", err)
	}

	if u.Status == "suspended" {
		return nil, ErrAccountSuspended
	}
	return s.createSession(ctx, u.ID)
}

func (s *authService) fetchProfile(ctx context.Context, p oauthProvider, tok *oauth2.Token) (*oauthProfile, error) {
	client := p.config.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	profile, err := p.parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse userinfo: %w", err)
	}
	return profile, nil
}

// linkOrCreateOAuthUser attaches the provider identity to an existing account
// with the same email, or registers a fresh account. Either way the email
// counts as verified: the provider already proved ownership.
func (s *authService) linkOrCreateOAuthUser(ctx context.Context, provider string, profile *oauthProfile) (*store.User, error) {
	u, err := s.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		if err := s.users.LinkOAuth(ctx, u.ID, provider, profile.Subject); err != nil {
			return nil, fmt.Errorf("link oauth identity: %w", err)
		}
		if !u.EmailVerified {
			if err := s.users.SetEmailVerified(ctx, u.ID); err != nil {
				return nil, fmt.Errorf("mark email verified: %w", err)
			}
		}
		return u, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	u = &store.User{
		Email:         profile.Email,
		FullName:      profile.Name,
		EmailVerified: true,
		OAuthProvider: &provider,
		OAuthSubject:  &profile.Subject,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// RefreshTokens
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.paseto.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Type != pasetotoken.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == nil {
		return nil, ErrInvalidToken
	}

	sessionKey := redisKeySession(claims.SessionID.String())

	if err := s.rdb.Get(ctx, sessionKey).Err(); err == redis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	// Sliding session: every refresh extends it.
	s.rdb.Expire(ctx, sessionKey, s.paseto.RefreshTTL())

	accessToken, err := s.paseto.IssueAccess(claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // unchanged until logout
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, redisKeySession(sessionID.String())).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if deleted == 0 {
		// Session already expired — not an error from the client's perspective.
		slog.Debug("logout: session not found in Redis (already expired)", "session_id", sessionID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Password reset
// ---------------------------------------------------------------------------

func (s *authService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if err == store.ErrNotFound {
			// Do not reveal whether the address is registered.
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	token, err := codes.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	ttl := time.Duration(s.cfg.Authentication.ResetTokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if err := s.rdb.Set(ctx, redisKeyReset(token), u.ID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := strings.TrimRight(s.cfg.Server.Domain, "/") + "/reset-password?token=" + token
	msg := email.BuildPasswordResetEmail(emailAddr, resetURL, int(ttl.Minutes()))
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Warn("failed to send password reset email", "email", emailAddr, "error", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	userIDStr, err := s.rdb.Get(ctx, redisKeyReset(token)).Result()
	if err == redis.Nil {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("redis get reset token: %w", err)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return ErrResetTokenInvalid
	}

	passHash, err := password.HashWithParams(newPassword, s.passParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, passHash); err != nil {
		if err == store.ErrNotFound {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.rdb.Del(ctx, redisKeyReset(token))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) sendVerificationCode(ctx context.Context, emailAddr string) error {
	code, err := otp.GenerateDefault()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	ttl := time.Duration(s.cfg.Authentication.VerificationTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	if err := s.rdb.Set(ctx, redisKeyVerify(emailAddr), otp.Hash(code), ttl).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	s.rdb.Set(ctx, redisKeyVerifyAttempts(emailAddr), "0", ttl+5*time.Minute)

	msg := email.BuildVerificationEmail(emailAddr, code, int(ttl.Minutes()))
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Log but don't fail — mail trouble shouldn't block registration.
		slog.Warn("failed to send verification email", "email", emailAddr, "error", err)
	}
	return nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())

	sessionKey := redisKeySession(sessionID.String())
	if err := s.rdb.Set(ctx, sessionKey, userID.String(), s.paseto.RefreshTTL()).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, err := s.paseto.IssueAccess(userID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.paseto.IssueRefresh(userID, &sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.paseto.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) recordFailedLogin(ctx context.Context, emailAddr string) {
	key := redisKeyLoginAttempts(emailAddr)
	attempts, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("failed to record login attempt", "email", emailAddr, "error", err)
		return
	}
	if attempts == 1 || attempts >= maxLoginAttempts {
		s.rdb.Expire(ctx, key, accountLockMins*time.Minute)
	}
}
