package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestClassify(t *testing.T) {
	out := run(t, "classify", "/admin/users/")
	assert.True(t, strings.HasPrefix(out, "/admin/users\t"))
	assert.Contains(t, out, "guarded=true")
}

func TestCheck(t *testing.T) {
	assert.Equal(t, "REDIRECT(/login)\n", run(t, "check", "--path", "/dashboard"))

	admin := `{"email":"admin@bookit.com","role":"admin","name":"Admin"}`
	assert.Equal(t, "ALLOW\n", run(t, "check", "--path", "/admin/dashboard", "--user", admin, "--onboarded"))
	assert.Equal(t, "REDIRECT(/user-onboarding)\n", run(t, "check", "--path", "/admin/dashboard", "--user", admin))
}

func TestCheck_UnreadableUserIsAnonymous(t *testing.T) {
	out := run(t, "check", "--path", "/dashboard", "--user", "{broken")
	assert.Contains(t, out, "анонимным")
	assert.Contains(t, out, "REDIRECT(/login)")
}

func TestEncodeIdentity_RoundTripsThroughCheck(t *testing.T) {
	value := strings.TrimSpace(run(t, "encode-identity", "--email", "user@bookit.com", "--name", "User"))
	out := run(t, "check", "--path", "/login", "--user", value, "--onboarded")
	assert.Equal(t, "REDIRECT(/dashboard)\n", out)
}

func TestEncodeIdentity_Errors(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"encode-identity", "--email", "a@b.c", "--role", "root"})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetArgs([]string{"encode-identity", "--email", "a@b.c", "--signed"})
	assert.Error(t, cmd.Execute())
}

func TestGenSecret_UsableForSignedIdentity(t *testing.T) {
	secret := strings.TrimSpace(run(t, "gen-secret"))
	token := strings.TrimSpace(run(t, "encode-identity", "--email", "admin@bookit.com", "--role", "admin", "--signed", "--secret", secret))
	assert.Equal(t, 2, strings.Count(token, "."))
	assert.NotEqual(t, secret, strings.TrimSpace(run(t, "gen-secret")))
}
