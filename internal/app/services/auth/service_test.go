package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/storefront/internal/app/httpapi"
	"github.com/R3E-Network/storefront/internal/app/storage"
	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/httputil"
	"github.com/R3E-Network/storefront/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *httpapi.Server, *storage.Memory) {
	t.Helper()
	srv := httpapi.NewServer()
	t.Cleanup(srv.Close)

	client, err := httputil.New(httputil.Config{BaseURL: srv.URL, Logger: logger.NewDiscard()})
	require.NoError(t, err)

	store := storage.NewMemory()
	return New(client, store, logger.NewDiscard()), srv, store
}

func TestLogin_PersistsToken(t *testing.T) {
	svc, srv, store := newTestService(t)
	srv.SeedUser("buyer@example.com", "secret", "Buyer One")

	res := svc.Login(context.Background(), "buyer@example.com", "secret")
	require.True(t, res.Success, res.Error)

	u, ok := svc.User()
	require.True(t, ok)
	assert.Equal(t, "Buyer One", u.FullName)

	stored, err := store.Get(context.Background(), storage.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, svc.Token(), stored)
}

func TestLogin_ServerRejection(t *testing.T) {
	svc, srv, store := newTestService(t)
	srv.SeedUser("buyer@example.com", "secret", "Buyer One")

	res := svc.Login(context.Background(), "buyer@example.com", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid email or password", res.Error)
	assert.Equal(t, sferrors.CodeUnauthorized, res.Code)
	assert.False(t, svc.Authenticated())
	assert.Equal(t, 0, store.Len())
}

func TestLogin_NetworkFailureIsGeneric(t *testing.T) {
	svc, srv, _ := newTestService(t)
	srv.Fail(httpapi.RouteLogin, httpapi.StatusDrop)

	res := svc.Login(context.Background(), "buyer@example.com", "secret")
	assert.False(t, res.Success)
	assert.Equal(t, sferrors.MsgNetwork, res.Error)
}

func TestLogin_ValidatesLocally(t *testing.T) {
	svc, srv, _ := newTestService(t)

	for _, tc := range []struct{ email, password string }{
		{"", "secret"},
		{"not-an-email", "secret"},
		{"buyer@example.com", ""},
	} {
		res := svc.Login(context.Background(), tc.email, tc.password)
		assert.False(t, res.Success)
		assert.Equal(t, sferrors.CodeValidation, res.Code)
	}
	assert.Empty(t, srv.RequestsTo(httpapi.RouteLogin))
}

func TestRegister(t *testing.T) {
	svc, srv, _ := newTestService(t)

	res := svc.Register(context.Background(), "new@example.com", "pw", "New Buyer")
	require.True(t, res.Success, res.Error)
	u, ok := svc.User()
	require.True(t, ok)
	assert.Equal(t, "New Buyer", u.FullName)

	reqs := srv.RequestsTo(httpapi.RouteRegister)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"email":"new@example.com","password":"pw","full_name":"New Buyer"}`, string(reqs[0].Body))

	svc.Logout(context.Background())
	dup := svc.Register(context.Background(), "new@example.com", "pw", "New Buyer")
	assert.False(t, dup.Success)
	assert.Equal(t, "Email already registered", dup.Error)

	missing := svc.Register(context.Background(), "other@example.com", "pw", " ")
	assert.Equal(t, sferrors.CodeValidation, missing.Code)
}

func TestRestore_ValidToken(t *testing.T) {
	svc, srv, store := newTestService(t)
	u, token := srv.SeedUser("buyer@example.com", "secret", "Buyer One")
	require.NoError(t, store.Set(context.Background(), storage.TokenKey, token))

	require.NoError(t, svc.Restore(context.Background()))
	assert.Equal(t, u.ID, svc.UserID())
	assert.Equal(t, token, svc.Token())

	verify := srv.RequestsTo(httpapi.RouteVerify)
	require.Len(t, verify, 1)
	assert.Equal(t, "Bearer "+token, verify[0].Header.Get("Authorization"))
}

func TestRestore_RejectedTokenIsCleared(t *testing.T) {
	svc, _, store := newTestService(t)
	require.NoError(t, store.Set(context.Background(), storage.TokenKey, "revoked-token"))

	err := svc.Restore(context.Background())
	require.Error(t, err)
	assert.Equal(t, sferrors.CodeInvalidToken, sferrors.GetServiceError(err).Code)

	assert.False(t, svc.Authenticated())
	assert.Empty(t, svc.Token())
	_, err = store.Get(context.Background(), storage.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRestore_NetworkFailureClearsToken(t *testing.T) {
	svc, srv, store := newTestService(t)
	_, token := srv.SeedUser("buyer@example.com", "secret", "Buyer One")
	require.NoError(t, store.Set(context.Background(), storage.TokenKey, token))
	srv.Fail(httpapi.RouteVerify, httpapi.StatusDrop)

	err := svc.Restore(context.Background())
	assert.True(t, sferrors.IsKind(err, sferrors.KindNetwork))
	assert.False(t, svc.Authenticated())
	assert.Equal(t, 0, store.Len())
}

func TestRestore_ExpiredJWTSkipsNetwork(t *testing.T) {
	svc, srv, store := newTestService(t)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), storage.TokenKey, expired))

	err = svc.Restore(context.Background())
	require.Error(t, err)
	assert.Empty(t, srv.RequestsTo(httpapi.RouteVerify))
	assert.Equal(t, 0, store.Len())
}

func TestRestore_NoStoredToken(t *testing.T) {
	svc, srv, _ := newTestService(t)
	require.NoError(t, svc.Restore(context.Background()))
	assert.Empty(t, srv.Requests())
}

func TestLogout_ClearsMemoryAndStorage(t *testing.T) {
	svc, srv, store := newTestService(t)
	srv.SeedUser("buyer@example.com", "secret", "Buyer One")
	require.True(t, svc.Login(context.Background(), "buyer@example.com", "secret").Success)
	srv.ResetRequests()

	svc.Logout(context.Background())

	assert.False(t, svc.Authenticated())
	assert.Empty(t, svc.Token())
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, srv.Requests(), "logout must not call the server")
}

func TestVerify_StaleFailureKeepsNewerLogin(t *testing.T) {
	svc, srv, _ := newTestService(t)
	srv.SeedUser("buyer@example.com", "secret", "Buyer One")
	require.True(t, svc.Login(context.Background(), "buyer@example.com", "secret").Success)

	err := svc.Verify(context.Background(), "some-older-token")
	require.Error(t, err)
	assert.True(t, svc.Authenticated())
	assert.Equal(t, http.StatusUnauthorized, sferrors.GetServiceError(err).HTTPStatus)
}
