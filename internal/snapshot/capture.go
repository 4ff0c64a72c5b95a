// Package snapshot captures a single still frame from a camera, either by
// fetching the device's HTTP snapshot endpoint or by grabbing one frame
// from the RTSP stream with ffmpeg.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"tapocam-cli/internal/config"
	"tapocam-cli/internal/faults"
)

// Capture methods.
const (
	MethodFFmpeg = "ffmpeg"
	MethodHTTP   = "http"
)

// Options controls one capture.
type Options struct {
	Output    string        // destination file path
	Method    string        // MethodFFmpeg or MethodHTTP
	Quality   int           // ffmpeg -q:v value, lower is better
	Timeout   time.Duration // per-attempt budget
	Timestamp bool          // insert a timestamp into the filename
}

// Result reports where the frame landed and which method produced it.
type Result struct {
	Path   string
	Method string
}

// urlSource supplies the device-advertised media endpoints. The camera
// session satisfies it.
type urlSource interface {
	SnapshotURL() (string, error)
	StreamURL() (string, error)
}

// Capturer runs snapshot captures. The exec and clock hooks exist for
// tests.
type Capturer struct {
	log  *zap.Logger
	http *resty.Client
	run  func(ctx context.Context, name string, args ...string) error
	now  func() time.Time
}

// NewCapturer builds a capturer with the real transcoder and HTTP client.
func NewCapturer(log *zap.Logger) *Capturer {
	return &Capturer{
		log:  log.Named("snapshot"),
		http: resty.New(),
		run: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			return cmd.Run()
		},
		now: time.Now,
	}
}

// Capture grabs one frame via the requested method. The ffmpeg path asks
// the device for its RTSP URL and falls back to the well-known stream
// address when the device will not say; the HTTP path does the same with
// the snapshot endpoint. On any failure a partially written output file is
// removed.
func (c *Capturer) Capture(src urlSource, conn config.Profile, opts Options) (Result, error) {
	dest := opts.Output
	if opts.Timestamp {
		dest = timestamped(dest, c.now())
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	switch opts.Method {
	case MethodHTTP:
		err = c.captureHTTP(src, conn, dest, opts)
	default:
		err = c.captureFFmpeg(src, conn, dest, opts)
	}
	if err != nil {
		removePartial(dest)
		return Result{}, err
	}
	return Result{Path: dest, Method: methodName(opts.Method)}, nil
}

func methodName(m string) string {
	if m == MethodHTTP {
		return MethodHTTP
	}
	return MethodFFmpeg
}

// captureFFmpeg shells out to ffmpeg for a one-frame grab over RTSP.
func (c *Capturer) captureFFmpeg(src urlSource, conn config.Profile, dest string, opts Options) error {
	uri, err := src.StreamURL()
	if err != nil {
		uri = fallbackStreamURL(conn)
		c.log.Debug("using fallback stream url", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	args := ffmpegArgs(uri, dest, opts.Quality)
	c.log.Debug("running ffmpeg", zap.Strings("args", args))
	if err := c.run(ctx, "ffmpeg", args...); err != nil {
		return classifyRunError(err, ctx)
	}
	return nil
}

// ffmpegArgs builds the one-frame grab invocation. TCP transport avoids
// the packet loss artifacts UDP shows on a single-frame read, and the
// reconnect options cover devices that drop the connection mid-handshake
// (they apply to HTTP-backed streams and are ignored for plain RTSP).
func ffmpegArgs(uri, dest string, quality int) []string {
	return []string{
		"-rtsp_transport", "tcp",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "2",
		"-i", uri,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(quality),
		"-y", dest,
	}
}

func classifyRunError(err error, ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return faults.New(faults.Timeout, "ffmpeg capture", err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return faults.New(faults.TranscoderMissing, "ffmpeg capture", err)
	}
	return faults.New(faults.Unclassified, "ffmpeg capture", err)
}

// captureHTTP fetches the device's snapshot endpoint and writes the body
// to dest.
func (c *Capturer) captureHTTP(src urlSource, conn config.Profile, dest string, opts Options) error {
	uri, err := src.SnapshotURL()
	if err != nil {
		uri = fallbackSnapshotURL(conn)
		c.log.Debug("using fallback snapshot url", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(conn.Username, conn.Password).
		SetOutput(dest).
		Get(uri)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return faults.New(faults.Timeout, "snapshot fetch", err)
		}
		return faults.New(faults.Connection, "snapshot fetch", err)
	}
	if resp.StatusCode() == 401 {
		return faults.New(faults.Auth, "snapshot fetch", fmt.Errorf("device returned %s", resp.Status()))
	}
	if !resp.IsSuccess() {
		return faults.New(faults.Unclassified, "snapshot fetch", fmt.Errorf("device returned %s", resp.Status()))
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		return faults.New(faults.Unclassified, "snapshot fetch", errors.New("device returned an empty image"))
	}
	return nil
}

// fallbackStreamURL is the well-known RTSP main stream path used when the
// device will not advertise one. Credentials go through url.UserPassword
// so characters like spaces survive the userinfo encoding.
func fallbackStreamURL(conn config.Profile) string {
	u := url.URL{
		Scheme: "rtsp",
		User:   url.UserPassword(conn.Username, conn.Password),
		Host:   conn.Address + ":554",
		Path:   "/stream1",
	}
	return u.String()
}

// fallbackSnapshotURL is the well-known HTTP snapshot path.
func fallbackSnapshotURL(conn config.Profile) string {
	return fmt.Sprintf("http://%s/onvif/snapshot", conn.Address)
}

// timestamped inserts a timestamp between the base name and extension, so
// repeated captures do not overwrite each other.
func timestamped(path string, t time.Time) string {
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	return fmt.Sprintf("%s_%s%s", base, t.Format("20060102_150405"), ext)
}

// removePartial deletes a possibly half-written output file. Best effort.
func removePartial(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}
