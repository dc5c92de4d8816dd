package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coachkit/cmd/coachctl/cmd"
	"github.com/dmitrymomot/coachkit/internal/testserver"
	"github.com/dmitrymomot/coachkit/pkg/config"
)

type cli struct {
	t     *testing.T
	srv   *testserver.Server
	file  string
	flags []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	config.ResetCache()
	t.Cleanup(config.ResetCache)
	t.Setenv("APP_ENV", "development")
	t.Setenv("MOCK_API", "false")
	t.Setenv("DEV_PERSIST_REFRESH", "false")
	t.Setenv("DEV_SECRET_STORE", "bolt")
	t.Setenv("REFRESH_TRANSPORT", "cookie")

	srv := testserver.New()
	t.Cleanup(srv.Close)
	file := filepath.Join(t.TempDir(), "session.db")
	return &cli{
		t:     t,
		srv:   srv,
		file:  file,
		flags: []string{"--api-url", srv.URL, "--session-file", file, "--persist"},
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := cmd.NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(append([]string{}, c.flags...), args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("login", "--email", "a@b.com", "--password", "x")
	require.NoError(t, err)

	var view struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Persisted bool `json:"persisted"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "a@b.com", view.User.Email)
	assert.True(t, view.Persisted)

	// A fresh command tree restores the session from the bolt file.
	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "a@b.com"`)
	assert.Equal(t, int64(1), c.srv.Calls(testserver.RouteRefresh))

	out, err = c.run("get", "/api/me", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "email: a@b.com")

	_, err = c.run("logout")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.srv.Calls(testserver.RouteLogout))

	_, err = c.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestSessionNotPersistedWithoutOptIn(t *testing.T) {
	t.Run("development without --persist", func(t *testing.T) {
		c := newCLI(t)
		c.flags = []string{"--api-url", c.srv.URL, "--session-file", c.file}

		out, err := c.run("login", "--email", "a@b.com", "--password", "x")
		require.NoError(t, err)
		assert.Contains(t, out, `"persisted": false`)
		assert.NoFileExists(t, c.file)

		_, err = c.run("whoami")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not signed in")
	})

	t.Run("--persist without APP_ENV", func(t *testing.T) {
		c := newCLI(t)
		t.Setenv("APP_ENV", "")
		require.NoError(t, os.Unsetenv("APP_ENV"))

		out, err := c.run("login", "--email", "a@b.com", "--password", "x")
		require.NoError(t, err)
		assert.Contains(t, out, `"persisted": false`)
		assert.NoFileExists(t, c.file)
	})
}

func TestProfile(t *testing.T) {
	c := newCLI(t)
	t.Setenv("STAGING_API_BASE_URL", c.srv.URL)
	t.Setenv("STAGING_APP_ENV", "development")
	t.Setenv("STAGING_DEV_SECRET_PATH", c.file)
	t.Setenv("STAGING_DEV_PERSIST_REFRESH", "true")
	c.flags = []string{"--profile", "staging"}

	out, err := c.run("login", "--email", "a@b.com", "--password", "x")
	require.NoError(t, err)
	assert.Contains(t, out, `"persisted": true`)
	assert.FileExists(t, c.file)

	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "a@b.com"`)
}

func TestLoginRejected(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("login", "--email", "a@b.com", "--password", "wrong")
	require.Error(t, err)

	_, err = c.run("whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
	assert.Zero(t, c.srv.Calls(testserver.RouteRefresh))
}

func TestLoginPasswordFromEnv(t *testing.T) {
	c := newCLI(t)
	t.Setenv("COACHCTL_PASSWORD", "x")

	_, err := c.run("login", "--email", "a@b.com")
	require.NoError(t, err)

	out, err := c.run("token")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRegister(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("register", "--email", "new@b.com", "--password", "pw", "--name", "New")
	require.NoError(t, err)

	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.NotEmpty(t, resp["id"])

	_, err = c.run("login", "--email", "new@b.com", "--password", "pw")
	require.NoError(t, err)

	_, err = c.run("register", "--email", "boss@b.com", "--password", "pw", "--role", "admin")
	require.Error(t, err)
}

func TestGetQueryValidation(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("get", "/api/me", "--query", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
	assert.Zero(t, c.srv.TotalCalls())
}

func TestUnknownOutputFormat(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("whoami", "-o", "xml")
	require.Error(t, err)
	assert.Zero(t, c.srv.TotalCalls())
}
