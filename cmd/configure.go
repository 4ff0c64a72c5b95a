package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tapocam-cli/internal/config"
)

// configureCmd verifies the supplied connection details against the camera
// and persists them so later invocations can omit the flags.
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Verify and save the camera connection details",
	Long: `Connects to the camera with the supplied credentials and, on success,
writes them to the user config file for future commands.

Example:
  tapocam-cli configure --address 192.168.1.60 -u admin -p secret`,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()

		session, profile := openSession(log)
		fmt.Printf("Connected to %s:%d as user '%s': %s %s (firmware %s)\n",
			profile.Address, profile.Port, profile.Username,
			session.Info.Manufacturer, session.Info.Model, session.Info.FirmwareVersion)

		resolver := config.NewResolver(config.Defaults{Port: defaultPort})
		if err := resolver.Save(profile); err != nil {
			fail(fmt.Errorf("failed to save configuration: %w", err))
		}
		fmt.Printf("Configuration saved to %s\n", resolver.UserConfigPath)
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
