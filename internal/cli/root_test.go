package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/httpapi"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "storefront", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"products"}, {"product"}, {"categories"}, {"search"},
		{"login"}, {"register"}, {"logout"}, {"whoami"},
		{"cart"}, {"cart", "show"}, {"cart", "add"}, {"cart", "remove"}, {"cart", "update"},
		{"recommend"}, {"pay"}, {"pay", "verify"}, {"crypto"}, {"dev-server"},
	}
	for _, path := range commands {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	for _, name := range []string{"config", "env-file", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestDevServerFlags(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"dev-server"})
	require.NoError(t, err)

	origins := sub.Flags().Lookup("allow-origin")
	require.NotNil(t, origins)
	assert.Equal(t, "[http://localhost:3000]", origins.DefValue)
	assert.Equal(t, "127.0.0.1:8001", sub.Flags().Lookup("addr").DefValue)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(assert.AnError))
}

type cliEnv struct {
	srv *httpapi.Server
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	srv := httpapi.NewServer()
	t.Cleanup(srv.Close)
	t.Setenv("STOREFRONT_API_URL", srv.URL)
	t.Setenv("STOREFRONT_STORE", "sqlite")
	t.Setenv("STOREFRONT_STORE_PATH", filepath.Join(t.TempDir(), "state.db"))
	t.Setenv("STOREFRONT_API_MAX_RETRIES", "0")
	t.Setenv("STOREFRONT_LOG_LEVEL", "error")
	return cliEnv{srv: srv}
}

func (e cliEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--env-file", ""}, args...)
	code := Execute(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_InvalidFormat(t *testing.T) {
	env := newCLIEnv(t)
	code, _, stderr := env.run(t, "--format", "yaml", "categories")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid format")
}

func TestExecute_SearchTracksEvent(t *testing.T) {
	env := newCLIEnv(t)

	code, stdout, _ := env.run(t, "search", "iphones", "15", "pro", "max")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "iPhone 15 Pro Max 256GB")

	events := env.srv.EventsOfType(tracking.Search)
	require.Len(t, events, 1)
	assert.EqualValues(t, 2, events[0].Properties["results_count"])
}

func TestExecute_LoginPersistsAcrossInvocations(t *testing.T) {
	env := newCLIEnv(t)
	env.srv.SeedUser("buyer@example.com", "secret", "Bulk Buyer")

	code, _, _ := env.run(t, "cart", "add", "prod_42")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, env.srv.RequestsTo(httpapi.RouteCartAdd))

	code, stdout, _ := env.run(t, "login", "--email", "buyer@example.com", "--password", "secret")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Signed in as")

	code, stdout, _ = env.run(t, "--format", "json", "cart", "add", "prod_42", "1")
	require.Equal(t, ExitSuccess, code, stdout)
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Items []struct {
				ProductID string `json:"product_id"`
				Quantity  int    `json:"quantity"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "prod_42", resp.Data.Items[0].ProductID)

	adds := env.srv.RequestsTo(httpapi.RouteCartAdd)
	require.Len(t, adds, 1)
	assert.Equal(t, "1", adds[0].Query.Get("quantity"))

	code, _, _ = env.run(t, "logout")
	require.Equal(t, ExitSuccess, code)
	code, stdout, _ = env.run(t, "whoami")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Not signed in")
}

func TestExecute_LoginFailureIsExitOne(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, stderr := env.run(t, "login", "--email", "nobody@example.com", "--password", "nope")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "Invalid email or password")
	assert.Contains(t, stderr, "Invalid email or password")
}

func TestExecute_JSONErrorEnvelope(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, _ := env.run(t, "--format", "json", "product", "prod_missing")
	assert.Equal(t, ExitFailure, code)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Product not found", resp.Error.Message)
}

func TestExecute_CryptoPayment(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, _ := env.run(t, "pay", "--amount", "4500", "--email", "buyer@example.com",
		"--name", "Buyer", "--method", "crypto", "--crypto", "bitcoin")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Send 0.1 to")
}
