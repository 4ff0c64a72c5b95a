package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tapocam-cli/pkg/models"
)

// statusReport is the JSON shape of the status command output.
type statusReport struct {
	Device   models.DeviceInfo `json:"device"`
	Services []string          `json:"services"`
	Profiles []models.Profile  `json:"profiles"`
	Profile  string            `json:"activeProfile"`
	Position *models.PTZVector `json:"position,omitempty"`
	Stream   string            `json:"streamUrl,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device identity, capabilities and current position",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		session, _ := openSession(log)

		report := statusReport{
			Device:   session.Info,
			Profiles: session.Profiles,
			Profile:  session.ProfileToken(),
		}
		for name := range session.Capabilities {
			report.Services = append(report.Services, name)
		}
		sort.Strings(report.Services)

		if session.HasService("ptz") {
			if pos, ok, err := session.PTZStatus(); err == nil && ok {
				report.Position = &pos
			}
		}

		// Stream URL probing is best effort; some firmwares refuse it.
		if url, err := session.StreamURL(); err == nil {
			report.Stream = url
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				fail(err)
			}
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "Manufacturer:\t%s\n", report.Device.Manufacturer)
		fmt.Fprintf(w, "Model:\t%s\n", report.Device.Model)
		fmt.Fprintf(w, "Firmware:\t%s\n", report.Device.FirmwareVersion)
		fmt.Fprintf(w, "Serial:\t%s\n", report.Device.SerialNumber)
		fmt.Fprintf(w, "Services:\t%s\n", strings.Join(report.Services, ", "))
		fmt.Fprintf(w, "Profile:\t%s\n", report.Profile)
		if report.Position != nil {
			fmt.Fprintf(w, "Position:\tpan=%.2f tilt=%.2f zoom=%.2f\n",
				report.Position.Pan, report.Position.Tilt, report.Position.Zoom)
		} else {
			fmt.Fprintf(w, "Position:\tunavailable\n")
		}
		if report.Stream != "" {
			fmt.Fprintf(w, "Stream:\t%s\n", report.Stream)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
