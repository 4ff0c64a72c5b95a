package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tapocam-cli/internal/snapshot"
)

// Variables to hold flag values
var (
	snapOutput    string
	snapMethod    string
	snapQuality   int
	snapTimeout   time.Duration
	snapTimestamp bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture a still frame from the camera",
	Long: `Grab one frame via ffmpeg from the RTSP stream (default), or fetch the
device's HTTP snapshot endpoint with --method http.`,
	Example: `  tapocam-cli snapshot --output front.jpg
  tapocam-cli snapshot --method http --timestamp`,
	Run: func(cmd *cobra.Command, args []string) {
		if snapMethod != snapshot.MethodFFmpeg && snapMethod != snapshot.MethodHTTP {
			fail(fmt.Errorf("invalid method %q: must be %q or %q", snapMethod, snapshot.MethodFFmpeg, snapshot.MethodHTTP))
		}

		log := newLogger()
		session, profile := openSession(log)

		capturer := snapshot.NewCapturer(log)
		result, err := capturer.Capture(session, profile, snapshot.Options{
			Output:    snapOutput,
			Method:    snapMethod,
			Quality:   snapQuality,
			Timeout:   snapTimeout,
			Timestamp: snapTimestamp,
		})
		if err != nil {
			fail(err)
		}
		fmt.Printf("Snapshot saved to %s (via %s)\n", result.Path, result.Method)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVarP(&snapOutput, "output", "o", "snapshot.jpg", "Output filename")
	snapshotCmd.Flags().StringVar(&snapMethod, "method", snapshot.MethodFFmpeg, "capture method: ffmpeg or http")
	snapshotCmd.Flags().IntVar(&snapQuality, "quality", 2, "JPEG quality for ffmpeg capture (1 best to 31 worst)")
	snapshotCmd.Flags().DurationVar(&snapTimeout, "timeout", 15*time.Second, "capture timeout")
	snapshotCmd.Flags().BoolVar(&snapTimestamp, "timestamp", false, "append a timestamp to the filename")
}
