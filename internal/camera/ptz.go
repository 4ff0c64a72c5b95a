package camera

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/use-go/onvif/ptz"
	"github.com/use-go/onvif/xsd"
	onvifxsd "github.com/use-go/onvif/xsd/onvif"
	"go.uber.org/zap"

	"tapocam-cli/internal/faults"
	"tapocam-cli/internal/validate"
	"tapocam-cli/pkg/models"
)

// Defaults carries the controller's policy knobs explicitly instead of
// package-level constants.
type Defaults struct {
	Speed       float64
	SettleDelay time.Duration
}

// Request captures the user's PTZ intent for one invocation. Intents are
// mutually exclusive and evaluated in fixed priority order:
// stop > home > continuous move > absolute move > report position.
type Request struct {
	Stop bool
	Home bool

	// Continuous move directions, at most one per dimension.
	Left, Right, Up, Down, ZoomIn, ZoomOut bool

	// Absolute targets; a nil axis keeps the camera's current value.
	Pan, Tilt, Zoom *float64

	Speed    float64       // 0 means use the configured default
	Duration time.Duration // continuous move auto-stop; 0 runs until an explicit stop
}

func (r Request) continuous() bool {
	return r.Left || r.Right || r.Up || r.Down || r.ZoomIn || r.ZoomOut
}

func (r Request) absolute() bool {
	return r.Pan != nil || r.Tilt != nil || r.Zoom != nil
}

// Result reports what the controller did.
type Result struct {
	Action   string
	Position *models.PTZVector // confirmed/reported position, when one was read
	Guidance string            // operator hint, e.g. how to stop a running move
}

// Controller translates user intent into device session calls.
type Controller struct {
	session  *Session
	defaults Defaults
	log      *zap.Logger
	sleep    func(time.Duration)
}

// NewController builds a controller over an open session.
func NewController(s *Session, defaults Defaults, log *zap.Logger) *Controller {
	return &Controller{
		session:  s,
		defaults: defaults,
		log:      log.Named("ptz"),
		sleep:    time.Sleep,
	}
}

// Do dispatches the request per the intent priority order. Range validation
// happens before any network call; out-of-range values are a hard error,
// never clamped.
func (c *Controller) Do(req Request) (Result, error) {
	speed := req.Speed
	if speed == 0 {
		speed = c.defaults.Speed
	}
	if err := validate.Range(speed, 0, 1, "speed"); err != nil {
		return Result{}, err
	}

	switch {
	case req.Stop:
		return c.stop()
	case req.Home:
		return c.home(speed)
	case req.continuous():
		return c.continuousMove(req, speed)
	case req.absolute():
		return c.absoluteMove(req, speed)
	default:
		return c.report()
	}
}

// stop halts both the pan/tilt and zoom axes unconditionally.
func (c *Controller) stop() (Result, error) {
	if err := c.session.StopMove(); err != nil {
		return Result{}, err
	}
	return Result{Action: "stop"}, nil
}

// home requests the device's stored home position. When the device reports
// the capability unsupported, it falls back to an absolute move to the
// neutral vector at the given speed. The fallback is a policy decision, not
// a protocol requirement: a camera without a home position still gets a
// usable "home".
func (c *Controller) home(speed float64) (Result, error) {
	err := c.session.GotoHome(speed)
	if err == nil {
		return Result{Action: "home"}, nil
	}
	if !faults.Is(err, faults.Unsupported) {
		return Result{}, err
	}
	c.log.Debug("home position unsupported, moving to neutral", zap.Error(err))
	if err := c.session.AbsoluteMove(models.PTZVector{}, speed); err != nil {
		return Result{}, err
	}
	return Result{Action: "home (neutral fallback)"}, nil
}

// continuousMove starts a velocity-commanded motion. With a duration, the
// controller passes the device a whole-second timeout hint, waits the
// duration locally, and issues an explicit stop: device-side timeout
// support is unreliable, so the local stop is the primary mechanism and the
// hint only a safety net. Without a duration the move is left running.
func (c *Controller) continuousMove(req Request, speed float64) (Result, error) {
	if req.Duration != 0 {
		if err := validate.Range(req.Duration.Seconds(), 0.1, 300, "duration"); err != nil {
			return Result{}, err
		}
	}
	velocity, err := velocityVector(req, speed)
	if err != nil {
		return Result{}, err
	}
	if err := c.session.ContinuousMove(velocity, req.Duration); err != nil {
		return Result{}, err
	}
	if req.Duration == 0 {
		return Result{
			Action:   "continuous move",
			Guidance: "camera is moving; run 'move --stop' to halt",
		}, nil
	}

	c.log.Debug("waiting before stop", zap.Duration("duration", req.Duration))
	c.sleep(req.Duration)
	if err := c.session.StopMove(); err != nil {
		return Result{}, err
	}
	return Result{Action: "continuous move"}, nil
}

// velocityVector builds the signed velocity from the direction flags,
// enforcing at most one direction per dimension.
func velocityVector(req Request, speed float64) (models.PTZVector, error) {
	var v models.PTZVector
	switch {
	case req.Left && req.Right:
		return v, errors.New("cannot combine --left and --right")
	case req.Left:
		v.Pan = -speed
	case req.Right:
		v.Pan = speed
	}
	switch {
	case req.Up && req.Down:
		return v, errors.New("cannot combine --up and --down")
	case req.Up:
		v.Tilt = speed
	case req.Down:
		v.Tilt = -speed
	}
	switch {
	case req.ZoomIn && req.ZoomOut:
		return v, errors.New("cannot combine --zoom-in and --zoom-out")
	case req.ZoomIn:
		v.Zoom = speed
	case req.ZoomOut:
		v.Zoom = -speed
	}
	return v, nil
}

// absoluteMove commands a single target position. Axes the caller left out
// default to the camera's current position, so a partial command preserves
// the other axes. After the move it waits a short settle interval and
// re-queries the achieved position; that confirmation read is best effort.
func (c *Controller) absoluteMove(req Request, speed float64) (Result, error) {
	var target models.PTZVector
	if req.Pan == nil || req.Tilt == nil || req.Zoom == nil {
		current, ok, err := c.session.PTZStatus()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, errors.New("camera does not report its position; supply --pan, --tilt and --zoom together")
		}
		target = current
	}
	if req.Pan != nil {
		target.Pan = *req.Pan
	}
	if req.Tilt != nil {
		target.Tilt = *req.Tilt
	}
	if req.Zoom != nil {
		target.Zoom = *req.Zoom
	}

	if err := validate.Range(target.Pan, -1, 1, "pan"); err != nil {
		return Result{}, err
	}
	if err := validate.Range(target.Tilt, -1, 1, "tilt"); err != nil {
		return Result{}, err
	}
	if err := validate.Range(target.Zoom, 0, 1, "zoom"); err != nil {
		return Result{}, err
	}

	if err := c.session.AbsoluteMove(target, speed); err != nil {
		return Result{}, err
	}

	c.sleep(c.defaults.SettleDelay)
	if pos, ok, err := c.session.PTZStatus(); err == nil && ok {
		return Result{Action: "absolute move", Position: &pos}, nil
	}
	return Result{Action: "absolute move"}, nil
}

// report queries and reports the current position only. Read failures are
// reported inline, not raised.
func (c *Controller) report() (Result, error) {
	pos, ok, err := c.session.PTZStatus()
	if err != nil {
		return Result{Action: "status", Guidance: "position read failed: " + err.Error()}, nil
	}
	if !ok {
		return Result{Action: "status", Guidance: "camera does not report its position"}, nil
	}
	return Result{Action: "status", Position: &pos}, nil
}

// --- session-level PTZ operations ---

// AbsoluteMove issues a single absolute position request. The vector must
// already be range-validated.
func (s *Session) AbsoluteMove(target models.PTZVector, speed float64) error {
	_, err := s.call("AbsoluteMove", ptz.AbsoluteMove{
		ProfileToken: s.token(),
		Position: onvifxsd.PTZVector{
			PanTilt: onvifxsd.Vector2D{X: target.Pan, Y: target.Tilt},
			Zoom:    onvifxsd.Vector1D{X: target.Zoom},
		},
		Speed: speedVector(speed),
	})
	return err
}

// ContinuousMove issues a velocity request. A non-zero timeout is passed to
// the device as a whole-second duration hint.
func (s *Session) ContinuousMove(velocity models.PTZVector, timeout time.Duration) error {
	req := ptz.ContinuousMove{
		ProfileToken: s.token(),
		Velocity: onvifxsd.PTZSpeed{
			PanTilt: onvifxsd.Vector2D{X: velocity.Pan, Y: velocity.Tilt},
			Zoom:    onvifxsd.Vector1D{X: velocity.Zoom},
		},
	}
	if timeout > 0 {
		req.Timeout = xsd.Duration(fmt.Sprintf("PT%dS", int(math.Ceil(timeout.Seconds()))))
	}
	_, err := s.call("ContinuousMove", req)
	return err
}

// StopMove halts pan/tilt and zoom movement.
func (s *Session) StopMove() error {
	_, err := s.call("Stop", ptz.Stop{
		ProfileToken: s.token(),
		PanTilt:      xsd.Boolean(true),
		Zoom:         xsd.Boolean(true),
	})
	return err
}

// GotoHome requests the device's stored home position.
func (s *Session) GotoHome(speed float64) error {
	_, err := s.call("GotoHomePosition", ptz.GotoHomePosition{
		ProfileToken: s.token(),
		Speed:        speedVector(speed),
	})
	return err
}

func speedVector(speed float64) onvifxsd.PTZSpeed {
	return onvifxsd.PTZSpeed{
		PanTilt: onvifxsd.Vector2D{X: speed, Y: speed},
		Zoom:    onvifxsd.Vector1D{X: speed},
	}
}
