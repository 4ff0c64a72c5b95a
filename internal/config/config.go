// Package config resolves the effective camera connection profile from the
// four supported sources, highest priority first: CLI flag, environment
// variable, project-local dotfile, persisted user config file. A
// caller-supplied default closes the chain.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Profile is the effective connection profile for one invocation. It is
// built once and immutable afterward.
type Profile struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	Password string `json:"password"`
	Port     int    `json:"port"`
}

// Flags carries raw CLI flag values into the resolver. Empty string means
// the flag was not supplied.
type Flags struct {
	Address  string
	Username string
	Password string
	Port     string
}

// Defaults carries the fallback values explicitly instead of package-level
// constants.
type Defaults struct {
	Port int
}

// Environment variable names, one per field.
const (
	EnvAddress  = "TAPOCAM_ADDRESS"
	EnvUsername = "TAPOCAM_USERNAME"
	EnvPassword = "TAPOCAM_PASSWORD"
	EnvPort     = "TAPOCAM_PORT"
)

// Dotfile keys. These predate the environment variable scheme and use
// different names on purpose.
const (
	dotKeyAddress  = "TAPO_CAMERA_HOST"
	dotKeyUsername = "TAPO_CAMERA_USER"
	dotKeyPassword = "TAPO_CAMERA_PASSWORD"
	dotKeyPort     = "TAPO_CAMERA_PORT"
)

// Resolver merges the configuration sources. The paths are fields so tests
// can point them at fixtures.
type Resolver struct {
	DotfilePath    string
	UserConfigPath string
	Defaults       Defaults
}

// NewResolver returns a resolver reading the project-local dotfile and the
// user config file in the home directory.
func NewResolver(defaults Defaults) *Resolver {
	home, _ := os.UserHomeDir()
	return &Resolver{
		DotfilePath:    ".tapocam",
		UserConfigPath: filepath.Join(home, ".tapocam.json"),
		Defaults:       defaults,
	}
}

// Resolve merges the sources per field: flag, then environment, then
// dotfile, then user config, then default. The port is parsed and validated
// here; address and credential validation is a separate step.
func (r *Resolver) Resolve(flags Flags) (Profile, error) {
	dot := readDotfile(r.DotfilePath)
	saved := r.readUserConfig()

	profile := Profile{
		Address:  firstNonEmpty(flags.Address, os.Getenv(EnvAddress), dot[dotKeyAddress], saved["address"]),
		Username: firstNonEmpty(flags.Username, os.Getenv(EnvUsername), dot[dotKeyUsername], saved["username"]),
		Password: firstNonEmpty(flags.Password, os.Getenv(EnvPassword), dot[dotKeyPassword], saved["password"]),
		Port:     r.Defaults.Port,
	}

	if raw := firstNonEmpty(flags.Port, os.Getenv(EnvPort), dot[dotKeyPort], saved["port"]); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Profile{}, fmt.Errorf("invalid port %q: must be an integer between 1 and 65535", raw)
		}
		profile.Port = port
	}

	return profile, nil
}

// Save persists the profile to the user config file so later invocations
// can omit the connection flags.
func (r *Resolver) Save(profile Profile) error {
	v := viper.New()
	v.SetConfigFile(r.UserConfigPath)
	v.SetConfigType("json")
	v.Set("address", profile.Address)
	v.Set("username", profile.Username)
	v.Set("password", profile.Password)
	v.Set("port", profile.Port)
	return v.WriteConfigAs(r.UserConfigPath)
}

// readUserConfig loads the persisted JSON config. A missing or malformed
// file is silently treated as empty.
func (r *Resolver) readUserConfig() map[string]string {
	v := viper.New()
	v.SetConfigFile(r.UserConfigPath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil
	}
	out := make(map[string]string)
	for _, key := range []string{"address", "username", "password", "port"} {
		if v.IsSet(key) {
			out[key] = v.GetString(key)
		}
	}
	return out
}

// readDotfile parses simple KEY=VALUE lines. Comments and blank lines are
// skipped; matching outer single or double quotes are stripped. A missing
// file yields nothing.
func readDotfile(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	out := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
