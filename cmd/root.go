package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tapocam-cli/internal/camera"
	"tapocam-cli/internal/cliargs"
	"tapocam-cli/internal/config"
	"tapocam-cli/internal/faults"
	"tapocam-cli/internal/validate"
)

// Connection flags, shared by every subcommand.
var (
	flagAddress      string
	flagUsername     string
	flagPassword     string
	flagPort         string
	flagMediaProfile string
	jsonOutput       bool
	verbose          bool
)

const (
	defaultPort    = 2020
	sessionTimeout = 10 * time.Second
)

// numericFlags names the flags whose values may start with a minus sign.
// Execute pre-normalizes them so "--pan -0.5" parses as a value, not as an
// unknown flag.
var numericFlags = map[string]bool{
	"pan":   true,
	"tilt":  true,
	"zoom":  true,
	"speed": true,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tapocam-cli",
	Short: "Control TP-Link Tapo cameras over ONVIF",
	Long: `Pan, tilt and zoom control, preset management and snapshot capture
for Tapo cameras via their ONVIF endpoint.`,
}

func Execute() {
	rootCmd.SetArgs(cliargs.Normalize(os.Args[1:], numericFlags))
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAddress, "address", "", "camera IP address")
	rootCmd.PersistentFlags().StringVarP(&flagUsername, "username", "u", "", "camera account username")
	rootCmd.PersistentFlags().StringVarP(&flagPassword, "password", "p", "", "camera account password")
	rootCmd.PersistentFlags().StringVar(&flagPort, "port", "", fmt.Sprintf("ONVIF port (default %d)", defaultPort))
	rootCmd.PersistentFlags().StringVar(&flagMediaProfile, "media-profile", "", "media profile token (default: first advertised)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger returns a debug logger when --verbose is set, otherwise a
// no-op logger so normal output stays clean.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// resolveProfile merges flags, environment, dotfile and saved config into
// the effective connection profile and validates it.
func resolveProfile() (config.Profile, error) {
	resolver := config.NewResolver(config.Defaults{Port: defaultPort})
	profile, err := resolver.Resolve(config.Flags{
		Address:  flagAddress,
		Username: flagUsername,
		Password: flagPassword,
		Port:     flagPort,
	})
	if err != nil {
		return config.Profile{}, err
	}
	if profile.Address == "" {
		return config.Profile{}, fmt.Errorf("no camera address configured; pass --address, set %s or run 'tapocam-cli configure'", config.EnvAddress)
	}
	if err := validate.Address(profile.Address); err != nil {
		return config.Profile{}, err
	}
	return profile, nil
}

// openSession resolves the profile and connects to the camera.
func openSession(log *zap.Logger) (*camera.Session, config.Profile) {
	profile, err := resolveProfile()
	if err != nil {
		fail(err)
	}
	session, err := camera.Connect(profile, flagMediaProfile, sessionTimeout, log)
	if err != nil {
		fail(err)
	}
	return session, profile
}

// fail prints the classified error with guidance and exits.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", faults.Describe(err))
	os.Exit(1)
}
