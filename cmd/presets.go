package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tapocam-cli/internal/camera"
	"tapocam-cli/internal/validate"
	"tapocam-cli/pkg/models"
)

// Variables to hold flag values
var (
	presetToken string
	presetSpeed string
)

// Parent Command
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage PTZ presets",
	Long:  `List stored presets, save the current position, or recall and delete presets by name or token.`,
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored presets",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		session, _ := openSession(log)

		presets, err := session.Presets()
		if err != nil {
			fail(err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(presets); err != nil {
				fail(err)
			}
			return
		}

		if len(presets) == 0 {
			fmt.Println("No presets stored.")
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tNAME")
		fmt.Fprintln(w, "-----\t----")
		for _, p := range presets {
			fmt.Fprintf(w, "%s\t%s\n", p.Token, p.Name)
		}
		w.Flush()
	},
}

var presetsSaveCmd = &cobra.Command{
	Use:     "save [name]",
	Short:   "Save the current position as a preset",
	Args:    cobra.MaximumNArgs(1),
	Example: `  tapocam-cli presets save "front door"`,
	Run: func(cmd *cobra.Command, args []string) {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		log := newLogger()
		session, _ := openSession(log)

		token, err := session.SavePreset(name, presetToken)
		if err != nil {
			fail(err)
		}
		if name != "" {
			fmt.Printf("Preset %q saved under token %s\n", name, token)
		} else {
			fmt.Printf("Preset saved under token %s\n", token)
		}
	},
}

var presetsGotoCmd = &cobra.Command{
	Use:     "goto <name-or-token>",
	Short:   "Move the camera to a stored preset",
	Args:    cobra.ExactArgs(1),
	Example: `  tapocam-cli presets goto "front door"`,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		session, _ := openSession(log)

		presets, err := session.Presets()
		if err != nil {
			fail(err)
		}
		preset, found := camera.FindPreset(presets, args[0])
		if !found {
			printPresetNotFound(args[0], presets)
			os.Exit(1)
		}

		speed, err := parsePresetSpeed()
		if err != nil {
			fail(err)
		}
		if err := session.GotoPreset(preset.Token, speed); err != nil {
			fail(err)
		}
		fmt.Printf("Moving to preset %s\n", describePreset(preset))
	},
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <name-or-token>",
	Short: "Delete a stored preset",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		session, _ := openSession(log)

		presets, err := session.Presets()
		if err != nil {
			fail(err)
		}
		preset, found := camera.FindPreset(presets, args[0])
		if !found {
			printPresetNotFound(args[0], presets)
			os.Exit(1)
		}

		if err := session.RemovePreset(preset.Token); err != nil {
			fail(err)
		}
		fmt.Printf("Deleted preset %s\n", describePreset(preset))
	},
}

func parsePresetSpeed() (float64, error) {
	if presetSpeed == "" {
		return defaultSpeed, nil
	}
	speed, err := strconv.ParseFloat(presetSpeed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid speed %q: not a number", presetSpeed)
	}
	if err := validate.Range(speed, 0, 1, "speed"); err != nil {
		return 0, err
	}
	return speed, nil
}

func describePreset(p models.Preset) string {
	if p.Name != "" {
		return fmt.Sprintf("%q (token %s)", p.Name, p.Token)
	}
	return p.Token
}

// printPresetNotFound reports the miss and lists what the camera actually
// has, so the user does not need a second round trip.
func printPresetNotFound(identifier string, presets []models.Preset) {
	fmt.Fprintf(os.Stderr, "Error: no preset matches %q\n", identifier)
	if len(presets) == 0 {
		fmt.Fprintln(os.Stderr, "The camera has no stored presets.")
		return
	}
	fmt.Fprintln(os.Stderr, "Available presets:")
	for _, p := range presets {
		fmt.Fprintf(os.Stderr, "  %s\n", describePreset(p))
	}
}

func init() {
	rootCmd.AddCommand(presetsCmd)

	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsSaveCmd)
	presetsCmd.AddCommand(presetsGotoCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)

	presetsSaveCmd.Flags().StringVar(&presetToken, "token", "", "store under a specific token instead of letting the camera assign one")
	presetsGotoCmd.Flags().StringVar(&presetSpeed, "speed", "", "movement speed (0.0 to 1.0)")
}
