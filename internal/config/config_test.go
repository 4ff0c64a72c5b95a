package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	dir := t.TempDir()
	return &Resolver{
		DotfilePath:    filepath.Join(dir, ".tapocam"),
		UserConfigPath: filepath.Join(dir, ".tapocam.json"),
		Defaults:       Defaults{Port: 2020},
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAddress, EnvUsername, EnvPassword, EnvPort} {
		t.Setenv(key, "")
	}
}

func TestResolveDefaults(t *testing.T) {
	clearEnv(t)
	r := newTestResolver(t)

	profile, err := r.Resolve(Flags{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "")
	test.That(t, profile.Port, test.ShouldEqual, 2020)
}

func TestResolveFlagBeatsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddress, "10.0.0.2")
	r := newTestResolver(t)

	profile, err := r.Resolve(Flags{Address: "10.0.0.1"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "10.0.0.1")
}

func TestResolveEnvBeatsDotfile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddress, "10.0.0.2")
	r := newTestResolver(t)
	writeFile(t, r.DotfilePath, "TAPO_CAMERA_HOST=10.0.0.3\n")

	profile, err := r.Resolve(Flags{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "10.0.0.2")
}

func TestResolveDotfile(t *testing.T) {
	clearEnv(t)
	r := newTestResolver(t)
	writeFile(t, r.DotfilePath, `
# camera on the shelf
TAPO_CAMERA_HOST="10.0.0.3"
TAPO_CAMERA_USER='admin'
TAPO_CAMERA_PASSWORD=se=cret
TAPO_CAMERA_PORT=2021

not a key value line
`)

	profile, err := r.Resolve(Flags{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "10.0.0.3")
	test.That(t, profile.Username, test.ShouldEqual, "admin")
	// Only the first "=" splits the line.
	test.That(t, profile.Password, test.ShouldEqual, "se=cret")
	test.That(t, profile.Port, test.ShouldEqual, 2021)
}

func TestResolveFieldsMergeIndependently(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPassword, "envsecret")
	r := newTestResolver(t)
	writeFile(t, r.DotfilePath, "TAPO_CAMERA_HOST=10.0.0.3\n")

	profile, err := r.Resolve(Flags{Username: "flaguser"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "10.0.0.3")
	test.That(t, profile.Username, test.ShouldEqual, "flaguser")
	test.That(t, profile.Password, test.ShouldEqual, "envsecret")
}

func TestResolveInvalidPort(t *testing.T) {
	clearEnv(t)
	r := newTestResolver(t)

	for _, raw := range []string{"0", "70000", "-1", "abc"} {
		_, err := r.Resolve(Flags{Port: raw})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid port")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	r := newTestResolver(t)

	saved := Profile{Address: "10.0.0.9", Username: "admin", Password: "secret", Port: 2020}
	test.That(t, r.Save(saved), test.ShouldBeNil)

	profile, err := r.Resolve(Flags{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile, test.ShouldResemble, saved)
}

func TestSavedConfigIsLowestPriority(t *testing.T) {
	clearEnv(t)
	r := newTestResolver(t)
	test.That(t, r.Save(Profile{Address: "10.0.0.9", Port: 2020}), test.ShouldBeNil)
	writeFile(t, r.DotfilePath, "TAPO_CAMERA_HOST=10.0.0.3\n")

	profile, err := r.Resolve(Flags{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "10.0.0.3")
}

func TestMissingFilesIgnored(t *testing.T) {
	clearEnv(t)
	r := newTestResolver(t)

	profile, err := r.Resolve(Flags{Address: "10.0.0.1"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, profile.Address, test.ShouldEqual, "10.0.0.1")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)
}
