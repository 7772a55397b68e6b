package program

import (
	"fmt"
	"net/netip"
	"os"
	"path"
	"testing"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"github.com/hknutzen/bgp-route-mapper/test/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	fname := path.Join(dir, name)
	require.NoError(t, os.WriteFile(fname, []byte(data), 0644))
	return fname
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "config", `
# Comment
basedir = /var/bgp
community = 65000:100
exclude = 10.0.0.0/8 2001:db8::/32
default_map = TAG_OUT
aspath_pattern = ^65000$
workers = 8
unknown = 1
`)
	var c *Config
	var err error
	stderr := capture.Capture(&os.Stderr, func() {
		errlog.SetStderrLog("")
		c, err = LoadConfig(file)
	})
	require.NoError(t, err)
	assert.Equal(t, "WARNING>>> Ignoring key 'unknown' in "+file+"\n", stderr)
	assert.Equal(t, "/var/bgp", c.BaseDir)
	assert.Equal(t, "65000:100", c.Community)
	assert.Equal(t, "10.0.0.0/8 2001:db8::/32", c.GetVal("exclude"))
	assert.Equal(t, "TAG_OUT", c.DefaultMap)
	assert.Equal(t, "^65000$", c.ASPathPattern)
	assert.Equal(t, "60", c.GetVal("timeout"))
	assert.Equal(t, "3", c.GetVal("login_timeout"))
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, "/var/bgp/output/route_map_logs.txt", c.Path(c.LogFile))
	assert.Equal(t, "/var/bgp/inventory.yaml", c.Path(c.Inventory))
	assert.Equal(t, "/etc/hosts.yaml", c.Path("/etc/hosts.yaml"))
}

func TestLoadConfigExclude(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadConfig(writeFile(t, dir, "default", "basedir = x\n"))
	require.NoError(t, err)
	assert.Equal(t, "10.254.254.0/24 11.0.0.0/8", c.GetVal("exclude"))
	assert.True(t, c.Exclude.Excludes(netip.MustParseAddr("11.1.1.1")))

	c, err = LoadConfig(writeFile(t, dir, "empty", "basedir = x\nexclude =\n"))
	require.NoError(t, err)
	assert.Equal(t, "", c.GetVal("exclude"))
	assert.False(t, c.Exclude.Excludes(netip.MustParseAddr("11.1.1.1")))
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		title string
		input string
		err   string
	}{
		{"missing basedir", "community = 1:1\n", "Missing 'basedir' in %s"},
		{"bad int", "basedir = x\ntimeout = abc\n",
			"Expected integer value for 'timeout' in %s:" +
				` strconv.Atoi: parsing "abc": invalid syntax`},
		{"negative", "basedir = x\nlogin_timeout = -1\n",
			"Expected positive integer for 'login_timeout' in %s: -1"},
		{"no workers", "basedir = x\nworkers = 0\n",
			"Expected at least 1 for 'workers' in %s"},
		{"bad prefix", "basedir = x\nexclude = 10.0.0.0/33\n",
			"Invalid value for 'exclude' in %s: "},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			file := writeFile(t, t.TempDir(), "config", tc.input)
			_, err := LoadConfig(file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), fmt.Sprintf(tc.err, file))
		})
	}
}

func TestLoadConfigSearchPath(t *testing.T) {
	dir := t.TempDir()
	saved := ConfPaths
	defer func() { ConfPaths = saved }()
	ConfPaths = []string{path.Join(dir, "missing"), path.Join(dir, "found")}
	_, err := LoadConfig("")
	assert.EqualError(t, err,
		"No config file found in ["+ConfPaths[0]+" "+ConfPaths[1]+"]")

	writeFile(t, dir, "found", "basedir = "+dir+"\n")
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, dir, c.BaseDir)
}

func TestPolicy(t *testing.T) {
	c := &Config{
		Community:  "65000:1",
		DefaultMap: "X",
		Exclude:    bgp.MustParseExclusionRules("10.0.0.0/8"),
	}
	assert.Equal(t, "65000:1", c.Policy("").Community)
	p := c.Policy("65000:2")
	assert.Equal(t, "65000:2", p.Community)
	assert.Equal(t, "X", p.DefaultMap)
	assert.Equal(t, "10.0.0.0/8", p.Exclude.String())
}
