package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tapocam-cli/internal/camera"
)

// Variables to hold flag values. The numeric flags are strings so that
// negative values survive flag parsing; buildMoveRequest parses them.
var (
	movePan      string
	moveTilt     string
	moveZoom     string
	moveSpeed    string
	moveDuration float64
	moveLeft     bool
	moveRight    bool
	moveUp       bool
	moveDown     bool
	moveZoomIn   bool
	moveZoomOut  bool
	moveStop     bool
	moveHome     bool
)

const (
	defaultSpeed       = 0.5
	defaultSettleDelay = time.Second
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Pan, tilt and zoom the camera",
	Long: `Move the camera. Direction flags start a continuous move, position
flags perform an absolute move, and with no flags the current position is
reported. --stop and --home take precedence over everything else.`,
	Example: `  tapocam-cli move --left --duration 2
  tapocam-cli move --pan -0.5 --tilt 0.3
  tapocam-cli move --stop`,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := buildMoveRequest()
		if err != nil {
			fail(err)
		}

		log := newLogger()
		session, _ := openSession(log)
		controller := camera.NewController(session, camera.Defaults{
			Speed:       defaultSpeed,
			SettleDelay: defaultSettleDelay,
		}, log)

		result, err := controller.Do(req)
		if err != nil {
			fail(err)
		}
		printMoveResult(result)
	},
}

// buildMoveRequest parses the string-typed numeric flags into the
// controller request.
func buildMoveRequest() (camera.Request, error) {
	req := camera.Request{
		Stop:     moveStop,
		Home:     moveHome,
		Left:     moveLeft,
		Right:    moveRight,
		Up:       moveUp,
		Down:     moveDown,
		ZoomIn:   moveZoomIn,
		ZoomOut:  moveZoomOut,
		Duration: time.Duration(moveDuration * float64(time.Second)),
	}

	var err error
	if req.Pan, err = parseAxis("pan", movePan); err != nil {
		return camera.Request{}, err
	}
	if req.Tilt, err = parseAxis("tilt", moveTilt); err != nil {
		return camera.Request{}, err
	}
	if req.Zoom, err = parseAxis("zoom", moveZoom); err != nil {
		return camera.Request{}, err
	}
	if moveSpeed != "" {
		speed, err := strconv.ParseFloat(moveSpeed, 64)
		if err != nil {
			return camera.Request{}, fmt.Errorf("invalid speed %q: not a number", moveSpeed)
		}
		req.Speed = speed
	}
	return req, nil
}

func parseAxis(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: not a number", name, raw)
	}
	return &v, nil
}

func printMoveResult(result camera.Result) {
	fmt.Printf("Action: %s\n", result.Action)
	if result.Position != nil {
		fmt.Printf("Position: pan=%.2f tilt=%.2f zoom=%.2f\n",
			result.Position.Pan, result.Position.Tilt, result.Position.Zoom)
	}
	if result.Guidance != "" {
		fmt.Println(result.Guidance)
	}
}

func init() {
	rootCmd.AddCommand(moveCmd)

	moveCmd.Flags().StringVar(&movePan, "pan", "", "absolute pan target (-1.0 to 1.0)")
	moveCmd.Flags().StringVar(&moveTilt, "tilt", "", "absolute tilt target (-1.0 to 1.0)")
	moveCmd.Flags().StringVar(&moveZoom, "zoom", "", "absolute zoom target (0.0 to 1.0)")
	moveCmd.Flags().StringVar(&moveSpeed, "speed", "", fmt.Sprintf("movement speed (0.0 to 1.0, default %.1f)", defaultSpeed))
	moveCmd.Flags().Float64Var(&moveDuration, "duration", 0, "continuous move duration in seconds (0 = until --stop)")
	moveCmd.Flags().BoolVar(&moveLeft, "left", false, "pan left")
	moveCmd.Flags().BoolVar(&moveRight, "right", false, "pan right")
	moveCmd.Flags().BoolVar(&moveUp, "up", false, "tilt up")
	moveCmd.Flags().BoolVar(&moveDown, "down", false, "tilt down")
	moveCmd.Flags().BoolVar(&moveZoomIn, "zoom-in", false, "zoom in")
	moveCmd.Flags().BoolVar(&moveZoomOut, "zoom-out", false, "zoom out")
	moveCmd.Flags().BoolVar(&moveStop, "stop", false, "stop all movement")
	moveCmd.Flags().BoolVar(&moveHome, "home", false, "go to the home position")
}
