package program

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/hknutzen/bgp-route-mapper/pkg/bgp"
	"github.com/hknutzen/bgp-route-mapper/pkg/errlog"
	"gopkg.in/ini.v1"
)

var defaultVals = map[string]string{
	"exclude":       "10.254.254.0/24 11.0.0.0/8",
	"logfile":       "output/route_map_logs.txt",
	"inventory":     "inventory.yaml",
	"timeout":       "60",
	"login_timeout": "3",
	"workers":       "4",
}

type Config struct {
	BaseDir       string
	Community     string
	Exclude       bgp.ExclusionRules
	DefaultMap    string
	ASPathPattern string
	Inventory     string // Relative to BaseDir, if not absolute.
	LogFile       string // Relative to BaseDir, if not absolute.
	Timeout       int
	LoginTimeout  int
	Workers       int
	// Is only set by command line option -u.
	User     string
	Password string
}

// DefaultExclude is used if key 'exclude' is missing.
// An empty value for 'exclude' makes all peers eligible.
var DefaultExclude = bgp.MustParseExclusionRules(defaultVals["exclude"])

// ErrNotFound is returned if no file of ConfPaths exists.
var ErrNotFound = errors.New("No config file found")

var home, _ = os.UserHomeDir()
var ConfPaths = []string{
	path.Join(home, ".bgp-route-mapper"),
	"/usr/local/etc/bgp-route-mapper",
	"/etc/bgp-route-mapper",
}

// LoadConfig reads file or else the most specific file of ConfPaths.
func LoadConfig(file string) (*Config, error) {
	var data []byte
	if file != "" {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return nil, fmt.Errorf("Can't %v", err)
		}
	} else {
		for _, p := range ConfPaths {
			var err error
			data, err = os.ReadFile(p)
			if err == nil {
				file = p
				break
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("Can't %v", err)
			}
		}
		if data == nil {
			return nil, fmt.Errorf("%w in %v", ErrNotFound, ConfPaths)
		}
	}
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("Can't parse %s: %v", file, err)
	}
	for _, sec := range f.Sections() {
		if n := sec.Name(); n != ini.DefaultSection {
			errlog.Warning("Ignoring section [%s] in %s", n, file)
		}
	}
	c := &Config{}
	seen := make(map[string]bool)

	insert := func(key, val string) error {
		getInt := func() (int, error) {
			i, err := strconv.Atoi(val)
			if err != nil {
				return i, fmt.Errorf("Expected integer value for '%s' in %s: %v",
					key, file, err)
			}
			if i < 0 {
				return 0, fmt.Errorf(
					"Expected positive integer for '%s' in %s: %v", key, file, i)
			}
			return i, nil
		}
		var err error
		switch key {
		case "basedir":
			c.BaseDir = val
		case "community":
			c.Community = val
		case "exclude":
			c.Exclude, err = bgp.ParseExclusionRules(val)
			if err != nil {
				err = fmt.Errorf("Invalid value for '%s' in %s: %v", key, file, err)
			}
		case "default_map":
			c.DefaultMap = val
		case "aspath_pattern":
			c.ASPathPattern = val
		case "inventory":
			c.Inventory = val
		case "logfile":
			c.LogFile = val
		case "timeout":
			c.Timeout, err = getInt()
		case "login_timeout":
			c.LoginTimeout, err = getInt()
		case "workers":
			c.Workers, err = getInt()
			if err == nil && c.Workers == 0 {
				err = fmt.Errorf("Expected at least 1 for '%s' in %s", key, file)
			}
		default:
			errlog.Warning("Ignoring key '%s' in %s", key, file)
		}
		return err
	}

	for _, k := range f.Section(ini.DefaultSection).Keys() {
		key := k.Name()
		seen[key] = true
		if err := insert(key, k.String()); err != nil {
			return nil, err
		}
	}
	for key, val := range defaultVals {
		if !seen[key] {
			if err := insert(key, val); err != nil {
				return nil, err
			}
		}
	}
	if c.BaseDir == "" {
		return nil, fmt.Errorf("Missing 'basedir' in %s", file)
	}
	return c, nil
}

// Path returns fname relative to BaseDir.
func (c *Config) Path(fname string) string {
	if path.IsAbs(fname) {
		return fname
	}
	return path.Join(c.BaseDir, fname)
}

// Policy returns the policy for devices using community.
// Community of config is used, if community is empty.
func (c *Config) Policy(community string) bgp.Policy {
	if community == "" {
		community = c.Community
	}
	return bgp.Policy{
		Community:     community,
		DefaultMap:    c.DefaultMap,
		ASPathPattern: c.ASPathPattern,
		Exclude:       c.Exclude,
	}
}

func (c *Config) GetVal(key string) string {
	switch key {
	case "basedir":
		return c.BaseDir
	case "community":
		return c.Community
	case "exclude":
		return c.Exclude.String()
	case "default_map":
		return c.DefaultMap
	case "aspath_pattern":
		return c.ASPathPattern
	case "inventory":
		return c.Inventory
	case "logfile":
		return c.LogFile
	case "timeout":
		return strconv.Itoa(c.Timeout)
	case "login_timeout":
		return strconv.Itoa(c.LoginTimeout)
	case "workers":
		return strconv.Itoa(c.Workers)
	}
	return ""
}
