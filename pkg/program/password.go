package program

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const (
	userEnv = "BGPRM_USER"
	passEnv = "BGPRM_PASSWORD"
)

// GetUserPass returns credentials for device hostName from
// 1. option -u and password read from terminal,
// 2. environment or file .env in BaseDir,
// 3. file credentials in BaseDir.
func (c *Config) GetUserPass(hostName string) (string, string, error) {
	if c.User != "" {
		var err error
		if c.Password == "" {
			c.Password, err = c.askPassword()
		}
		return c.User, c.Password, err
	}
	if user, pass, err := c.getEnvPassword(); user != "" || err != nil {
		return user, pass, err
	}
	return c.getSystemPassword(hostName)
}

// Read password from user.
// Write directly to tty, because STDOUT may be redirected.
func (c *Config) askPassword() (string, error) {
	fd, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return "", err
	}
	defer fd.Close()
	fmt.Fprintf(fd, "Enter password for %q: ", c.User)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(fd)
	return string(pass), err
}

// Values from environment take precedence over values from .env.
func (c *Config) getEnvPassword() (string, string, error) {
	user, pass := os.Getenv(userEnv), os.Getenv(passEnv)
	if user == "" {
		file := path.Join(c.BaseDir, ".env")
		env, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", "", nil
			}
			return "", "", fmt.Errorf("Can't read %s: %v", file, err)
		}
		user = env[userEnv]
		if pass == "" {
			pass = env[passEnv]
		}
	}
	if user != "" && pass == "" {
		return "", "", fmt.Errorf("Missing %s for user %q", passEnv, user)
	}
	return user, pass, nil
}

// Format of credentials file
// - multiple lines
// - three fields, separated by whitespace: pattern username password
// - If current device name matches pattern, then return username and password.
// - Pattern may contain shell wildcard characters
//   - * matches zero or more characters
//   - ? matches one character
//
// - First matching line is taken.
func (c *Config) getSystemPassword(name string) (string, string, error) {
	file := path.Join(c.BaseDir, "credentials")
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("Can't %v", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 {
			return "", "", fmt.Errorf("Expected 3 fields in lines of %s", file)
		}
		matched, err := path.Match(parts[0], name)
		if err != nil {
			return "", "", fmt.Errorf("Invalid pattern '%s' in %s", parts[0], file)
		}
		if matched {
			return parts[1], parts[2], nil
		}
	}
	return "", "", fmt.Errorf("No matching entry found in %s", file)
}
