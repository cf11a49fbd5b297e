// Package auth owns the signed-in user and bearer token.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/storefront/internal/app/domain/user"
	"github.com/R3E-Network/storefront/internal/app/storage"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// API is the subset of the HTTP client the auth service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, token string, out any) error
	Post(ctx context.Context, path string, query url.Values, body any, token string, out any) error
}

// Service holds the current User and AuthToken. State transitions:
//
//	Unauthenticated -> Login/Register ok -> Authenticated -> Logout -> Unauthenticated
//	Unauthenticated (stored token) -> Verify -> Authenticated | Unauthenticated (cleared)
type Service struct {
	api   API
	store storage.Store
	log   *logger.Logger
	now   func() time.Time

	mu    sync.RWMutex
	user  *user.User
	token string
}

// New constructs the auth service. store may be nil, in which case nothing
// is persisted.
func New(api API, store storage.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	return &Service{api: api, store: store, log: log, now: time.Now}
}

// User returns the signed-in user, if any.
func (s *Service) User() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return user.User{}, false
	}
	return *s.user, true
}

// UserID returns the signed-in user's id or "".
func (s *Service) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Token returns the bearer token or "".
func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a user is signed in.
func (s *Service) Authenticated() bool {
	_, ok := s.User()
	return ok
}

// Restore loads the persisted token and verifies it. A missing token is not
// an error.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	token, err := s.store.Get(ctx, storage.TokenKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && strings.TrimSpace(token) == "") {
		return nil
	}
	if err != nil {
		s.log.WithError(err).Warn("failed to read stored token")
		return err
	}
	return s.Verify(ctx, token)
}

// Verify checks token against the server. On success the user is set; on any
// failure the token is removed from memory and durable storage.
func (s *Service) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return sferrors.InvalidToken(nil)
	}

	if expired, exp := s.expired(token); expired {
		s.log.WithField("expired_at", exp.Format(time.RFC3339)).Info("stored token expired; clearing")
		s.clearIfCurrent(ctx, token)
		return sferrors.InvalidToken(jwt.ErrTokenExpired)
	}

	var resp user.VerifyResponse
	if err := s.api.Get(ctx, "/api/auth/verify", nil, token, &resp); err != nil {
		s.log.WithError(err).Info("token verification failed; clearing")
		s.clearIfCurrent(ctx, token)
		if sferrors.IsKind(err, sferrors.KindServer) {
			return sferrors.InvalidToken(err)
		}
		return err
	}
	if resp.User.ID == "" {
		s.clearIfCurrent(ctx, token)
		return sferrors.InvalidToken(errors.New("verification response has no user"))
	}

	s.mu.Lock()
	u := resp.User
	s.user = &u
	s.token = token
	s.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token. Failures are returned as a
// Result carrying the server's message or the generic network message.
func (s *Service) Login(ctx context.Context, email, password string) sferrors.Result {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return sferrors.Fail(err)
	}
	if password == "" {
		return sferrors.Fail(sferrors.Validation("password", "is required"))
	}

	var resp user.AuthResponse
	creds := user.Credentials{Email: email, Password: password}
	if err := s.api.Post(ctx, "/api/auth/login", nil, creds, "", &resp); err != nil {
		s.log.WithError(err).WithField("email", email).Info("login failed")
		return sferrors.Fail(err)
	}
	return s.accept(ctx, resp)
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, email, password, fullName string) sferrors.Result {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if err := validateEmail(email); err != nil {
		return sferrors.Fail(err)
	}
	if password == "" {
		return sferrors.Fail(sferrors.Validation("password", "is required"))
	}
	if fullName == "" {
		return sferrors.Fail(sferrors.Validation("full_name", "is required"))
	}

	var resp user.AuthResponse
	creds := user.Credentials{Email: email, Password: password, FullName: fullName}
	if err := s.api.Post(ctx, "/api/auth/register", nil, creds, "", &resp); err != nil {
		s.log.WithError(err).WithField("email", email).Info("registration failed")
		return sferrors.Fail(err)
	}
	return s.accept(ctx, resp)
}

func (s *Service) accept(ctx context.Context, resp user.AuthResponse) sferrors.Result {
	if resp.Token == "" || resp.User.ID == "" {
		return sferrors.Fail(sferrors.Internal("auth response is missing token or user", nil))
	}

	s.mu.Lock()
	u := resp.User
	s.user = &u
	s.token = resp.Token
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(ctx, storage.TokenKey, resp.Token); err != nil {
			s.log.WithError(err).Warn("failed to persist token; session will not survive restart")
		}
	}
	s.log.WithField("user_id", u.ID).Info("signed in")
	return sferrors.OK()
}

// Logout clears the user and token from memory and durable storage. No
// server call is made.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(ctx, storage.TokenKey); err != nil {
			s.log.WithError(err).Warn("failed to delete stored token")
		}
	}
}

// clearIfCurrent drops token unless a newer sign-in replaced it while the
// check was in flight.
func (s *Service) clearIfCurrent(ctx context.Context, token string) {
	s.mu.Lock()
	if s.token != "" && s.token != token {
		s.mu.Unlock()
		return
	}
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	stored, err := s.store.Get(ctx, storage.TokenKey)
	if err != nil || stored != token {
		return
	}
	if err := s.store.Delete(ctx, storage.TokenKey); err != nil {
		s.log.WithError(err).Warn("failed to delete stored token")
	}
}

// expired peeks at the exp claim of a JWT without verifying its signature.
// Opaque tokens are never considered expired here.
func (s *Service) expired(token string) (bool, time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, time.Time{}
	}
	return exp.Time.Before(s.now()), exp.Time
}

func validateEmail(email string) error {
	if email == "" {
		return sferrors.Validation("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return sferrors.Validation("email", "is not a valid address")
	}
	return nil
}
