package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractor-desk/contractor-desk/internal/backend/backendtest"
	"github.com/contractor-desk/contractor-desk/internal/session"
)

type cliEnv struct {
	api         *backendtest.Server
	sessionFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		api:         backendtest.NewServer(t),
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (e *cliEnv) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs(append([]string{"--api-url", e.api.URL, "--session-file", e.sessionFile}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *cliEnv) login(t *testing.T) {
	t.Helper()
	out, _, err := e.run("login", "--email", "admin@example.com", "--password", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Welcome back, Admin!\n", out)
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	assert.Equal(t, backendtest.Token, session.NewFileStore(env.sessionFile).Token())

	out, _, err := env.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Admin")
	assert.Contains(t, out, "email: admin@example.com")

	out, _, err = env.run("logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", out)
	_, statErr := os.Stat(env.sessionFile)
	assert.True(t, os.IsNotExist(statErr))

	_, _, err = env.run("whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginValidation(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("login", "--email", "admin", "--password", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Please enter a valid email address.", Message(err))
	assert.Zero(t, env.api.Calls("POST /auth/login"))
}

func TestRegister(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run("register", "--name", "Nadia", "--email", "nadia@example.com", "--password", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Nadia!\n", out)

	_, _, err = env.run("register", "--name", "Nadia", "--email", "nadia@example.com", "--password", "hunter22")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", Message(err))
}

func TestSectionRequiresLogin(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run("contractors", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
	assert.Zero(t, env.api.Calls("GET /contractors"))
}

func TestListFormats(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	env.api.Seed("contractors", map[string]any{"name": "Alice", "contactNo": "555", "address": "X", "workCategory": "Piling"})
	env.api.Seed("contractors", map[string]any{"name": "Bashir", "contactNo": "777", "address": "Y", "workCategory": "Civil"})

	out, _, err := env.run("contractors", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Alice")
	assert.Contains(t, lines[1], "N/A")

	out, _, err = env.run("contractors", "list", "-c", "Civil", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Bashir"`)
	assert.NotContains(t, out, "Alice")

	out, _, err = env.run("contractors", "list", "-s", "ali", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Alice")

	_, _, err = env.run("contractors", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestAddEditDelete(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)

	out, _, err := env.run("suppliers", "add",
		"--name", "Steel Co", "--contactNo", "01", "--address", "Chattogram",
		"--category", "Metals", "--suppliedItems", "Beams")
	require.NoError(t, err)
	assert.Equal(t, "Supplier added (id 1)\n", out)

	out, _, err = env.run("suppliers", "edit", "1", "--remarks", "Net 30")
	require.NoError(t, err)
	assert.Equal(t, "Supplier 1 updated\n", out)
	records := env.api.Records("suppliers")
	require.Len(t, records, 1)
	assert.Equal(t, "Steel Co", records[0]["name"], "untouched fields keep their values")
	assert.Equal(t, "Net 30", records[0]["remarks"])

	_, _, err = env.run("suppliers", "edit", "1", "--name", " ")
	require.Error(t, err)
	assert.Equal(t, "Name is required", Message(err))
	assert.Equal(t, 1, env.api.Calls("PUT /suppliers"))

	out, _, err = env.run("suppliers", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Supplier 1 deleted\n", out)
	assert.Empty(t, env.api.Records("suppliers"))
}

func TestAddValidationSkipsBackend(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	_, _, err := env.run("contractors", "add", "--contactNo", "555")
	require.Error(t, err)
	assert.Equal(t, "Name is required", Message(err))
	assert.Zero(t, env.api.Calls("POST /contractors"))
}

func TestExportAndDoc(t *testing.T) {
	env := newCLIEnv(t)
	env.login(t)
	id := env.api.Seed("contractors", map[string]any{"name": "Alice Rahman", "contactNo": "555", "address": "X, Y", "workCategory": "Piling"})

	out, _, err := env.run("contractors", "export", "-f", "-")
	require.NoError(t, err)
	assert.Equal(t, "S. NO,NAME,CONTACT NO,ADDRESS,WORK CATEGORY,REMARKS\n"+`1,"Alice Rahman","555","X, Y","Piling",""`, out)

	file := filepath.Join(t.TempDir(), "out.csv")
	_, errOut, err := env.run("contractors", "export", "-f", file)
	require.NoError(t, err)
	assert.Contains(t, errOut, "wrote "+file)
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, out, string(raw))

	out, _, err = env.run("contractors", "doc", id, "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Name: Alice Rahman\n")

	_, _, err = env.run("contractors", "doc", "404", "-f", "-")
	assert.ErrorContains(t, err, `contractor "404" not found`)
}

func TestExpiredSession(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, session.NewFileStore(env.sessionFile).Save("stale", session.User{Name: "Admin"}))

	_, _, err := env.run("contractors", "list")
	require.Error(t, err)
	assert.Equal(t, "session expired, run `deskctl login` again", Message(err))
	assert.False(t, session.Authenticated(session.NewFileStore(env.sessionFile)))
}
