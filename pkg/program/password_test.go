package program

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserPass(t *testing.T) {
	t.Setenv(userEnv, "")
	t.Setenv(passEnv, "")

	dir := t.TempDir()
	c := &Config{BaseDir: dir}
	_, _, err := c.GetUserPass("r1")
	assert.ErrorContains(t, err, "Can't open "+dir+"/credentials")

	writeFile(t, dir, "credentials", `
# pattern user password
core-* admin s3cret
* guest guest
`)
	u, p, err := c.GetUserPass("core-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "s3cret"}, []string{u, p})
	u, _, err = c.GetUserPass("edge-1")
	require.NoError(t, err)
	assert.Equal(t, "guest", u)

	writeFile(t, dir, ".env", "BGPRM_USER=netops\nBGPRM_PASSWORD=\"from file\"\n")
	u, p, err = c.GetUserPass("core-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"netops", "from file"}, []string{u, p})

	t.Setenv(userEnv, "env")
	t.Setenv(passEnv, "pw")
	u, p, err = c.GetUserPass("core-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"env", "pw"}, []string{u, p})

	t.Setenv(passEnv, "")
	_, _, err = c.GetUserPass("core-1")
	assert.EqualError(t, err, `Missing BGPRM_PASSWORD for user "env"`)

	// Option -u with password already known.
	c.User, c.Password = "opt", "known"
	u, p, err = c.GetUserPass("core-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"opt", "known"}, []string{u, p})
}

func TestCredentialsErrors(t *testing.T) {
	t.Setenv(userEnv, "")
	t.Setenv(passEnv, "")
	for _, tc := range []struct{ input, err string }{
		{"* admin\n", "Expected 3 fields in lines of %s"},
		{"[ a b\n", "Invalid pattern '[' in %s"},
		{"other a b\n", "No matching entry found in %s"},
	} {
		dir := t.TempDir()
		file := writeFile(t, dir, "credentials", tc.input)
		_, _, err := (&Config{BaseDir: dir}).GetUserPass("r1")
		assert.EqualError(t, err, fmt.Sprintf(tc.err, file))
	}
}
