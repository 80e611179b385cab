package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"robohub/internal/backendtest"
	"robohub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T) (*backendtest.Backend, string) {
	t.Helper()
	backend, srv := backendtest.NewServer(t)
	dir := t.TempDir()
	chdir(t, dir)
	tokenFile := filepath.Join(dir, "token")

	t.Setenv("API_BASE_URL", srv.URL)
	t.Setenv("SESSION_DRIVER", "file")
	t.Setenv("SESSION_FILE", tokenFile)
	t.Setenv("SERVER_ENV", "production")
	return backend, tokenFile
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGatedCommandsNeedLogin(t *testing.T) {
	setupCLI(t)

	for _, args := range [][]string{{"whoami"}, {"cart"}, {"orders"}, {"checkout"}} {
		_, _, err := run(t, args...)
		assert.ErrorIs(t, err, errLoginRequired, args)
	}
}

func TestLoginIsRemembered(t *testing.T) {
	backend, tokenFile := setupCLI(t)
	backend.SeedUser("ada@example.com", "s3cret-pass", "Ada Lovelace")

	out, notice, err := run(t, "login", "--email", "ada@example.com", "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace <ada@example.com>")
	assert.Contains(t, notice, "Welcome back to RoboHub!")
	_, err = os.Stat(tokenFile)
	require.NoError(t, err)

	out, _, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "Customer")

	_, _, err = run(t, "logout")
	require.NoError(t, err)
	_, _, err = run(t, "whoami")
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestLoginFailureKeepsSignedOut(t *testing.T) {
	backend, _ := setupCLI(t)
	backend.SeedUser("ada@example.com", "s3cret-pass", "Ada Lovelace")

	_, _, err := run(t, "login", "--email", "ada@example.com", "--password", "wrong")

	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", domain.Message(err))
	_, _, err = run(t, "whoami")
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestCatalogSortedByPriceHigh(t *testing.T) {
	setupCLI(t)

	out, _, err := run(t, "catalog", "--sort", "price_high")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "All Products (4)", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "ai-companion-bot"))
	assert.True(t, strings.HasPrefix(lines[5], "edubot-learning-kit"))
}

func TestUnknownProduct(t *testing.T) {
	setupCLI(t)

	_, _, err := run(t, "product", "does-not-exist")

	assert.True(t, domain.IsNotFound(err))
}

func TestShoppingSession(t *testing.T) {
	backend, _ := setupCLI(t)
	user, _ := backend.SeedUser("ada@example.com", "s3cret-pass", "Ada Lovelace")
	_, _, err := run(t, "login", "--email", "ada@example.com", "--password", "s3cret-pass")
	require.NoError(t, err)

	_, notice, err := run(t, "cart", "add", "robovac-pro-x1")
	require.NoError(t, err)
	assert.Contains(t, notice, "Added 1 RoboVac Pro X1(s) to cart!")

	_, _, err = run(t, "cart", "add", "edubot-learning-kit", "2")
	require.NoError(t, err)

	_, _, err = run(t, "cart", "set", "robovac-pro-x1", "51")
	require.Error(t, err)
	backendCart := backend.CartOf(user.ID)
	assert.Equal(t, 1, backendCart.Quantity("robovac-pro-x1"))

	out, _, err := run(t, "cart")
	require.NoError(t, err)
	assert.Contains(t, out, "Items:     3")
	assert.Contains(t, out, "Total:     $929.97")

	out, notice, err = run(t, "checkout",
		"--full-name", "Ada Lovelace", "--address-line-1", "1 Analytical St",
		"--city", "Lahore", "--state", "Punjab", "--postal-code", "54000", "--phone", "+92 300 0000000")
	require.NoError(t, err)
	assert.Contains(t, notice, "Order placed successfully!")
	assert.Contains(t, out, "Cash on Delivery")
	assert.Contains(t, out, "$1079.97")
	assert.Empty(t, backend.CartOf(user.ID).Items)

	out, _, err = run(t, "orders")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "pending")
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
