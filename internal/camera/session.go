// Package camera wraps the ONVIF device protocol behind a session facade,
// a PTZ controller and a preset registry.
package camera

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/use-go/onvif"
	onvifdevice "github.com/use-go/onvif/device"
	"github.com/use-go/onvif/media"
	onvifxsd "github.com/use-go/onvif/xsd/onvif"
	"go.uber.org/zap"

	"tapocam-cli/internal/config"
	"tapocam-cli/internal/faults"
	"tapocam-cli/pkg/models"
)

// soapCaller is the slice of *onvif.Device the session depends on. Tests
// substitute a canned transport.
type soapCaller interface {
	CallMethod(method interface{}) (*http.Response, error)
}

// Session is an opened handle to one camera, owned exclusively by the
// command invocation that created it and torn down implicitly at process
// exit.
type Session struct {
	dev  soapCaller
	conn config.Profile
	log  *zap.Logger

	Info         models.DeviceInfo
	Capabilities map[string]string
	Profiles     []models.Profile

	profileToken string
}

// Connect performs the protocol handshake against address:port (the
// library appends the ONVIF device-control path) and discovers identity,
// capabilities and media profiles. profileToken overrides the default
// current-profile selection (the first advertised profile) when non-empty.
// Failures propagate to the caller's classification step; there are no
// retries here.
func Connect(conn config.Profile, profileToken string, timeout time.Duration, log *zap.Logger) (*Session, error) {
	xaddr := fmt.Sprintf("%s:%d", conn.Address, conn.Port)
	log.Debug("connecting to device", zap.String("xaddr", xaddr))

	dev, err := onvif.NewDevice(onvif.DeviceParams{
		Xaddr:      xaddr,
		Username:   conn.Username,
		Password:   conn.Password,
		HttpClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, faults.New(transportCategory(err), "connect "+xaddr, err)
	}

	s := newSession(dev, conn, profileToken, log)
	if err := s.bootstrap(); err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(dev soapCaller, conn config.Profile, profileToken string, log *zap.Logger) *Session {
	return &Session{
		dev:          dev,
		conn:         conn,
		log:          log.Named("session"),
		profileToken: profileToken,
	}
}

// bootstrap populates identity, the capability map and the profile list.
func (s *Session) bootstrap() error {
	info, err := s.deviceInformation()
	if err != nil {
		return err
	}
	s.Info = info

	caps, err := s.capabilities()
	if err != nil {
		return err
	}
	s.Capabilities = caps

	profiles, err := s.mediaProfiles()
	if err != nil {
		return err
	}
	s.Profiles = profiles

	if s.profileToken == "" && len(profiles) > 0 {
		s.profileToken = profiles[0].Token
	}
	s.log.Debug("session ready",
		zap.String("model", s.Info.Model),
		zap.Int("profiles", len(s.Profiles)),
		zap.String("profile_token", s.profileToken))
	return nil
}

// ProfileToken returns the token of the current media profile.
func (s *Session) ProfileToken() string { return s.profileToken }

// HasService reports whether the device advertises the named service
// (ptz, media, events, imaging, device).
func (s *Session) HasService(name string) bool {
	_, ok := s.Capabilities[strings.ToLower(name)]
	return ok
}

type deviceInformationEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetDeviceInformationResponse struct {
			Manufacturer    string `xml:"Manufacturer"`
			Model           string `xml:"Model"`
			FirmwareVersion string `xml:"FirmwareVersion"`
			SerialNumber    string `xml:"SerialNumber"`
			HardwareID      string `xml:"HardwareId"`
		} `xml:"GetDeviceInformationResponse"`
	} `xml:"Body"`
}

func (s *Session) deviceInformation() (models.DeviceInfo, error) {
	body, err := s.call("GetDeviceInformation", onvifdevice.GetDeviceInformation{})
	if err != nil {
		return models.DeviceInfo{}, err
	}
	var env deviceInformationEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return models.DeviceInfo{}, fmt.Errorf("failed to decode device information: %w", err)
	}
	r := env.Body.GetDeviceInformationResponse
	return models.DeviceInfo{
		Manufacturer:    r.Manufacturer,
		Model:           r.Model,
		FirmwareVersion: r.FirmwareVersion,
		SerialNumber:    r.SerialNumber,
		HardwareID:      r.HardwareID,
	}, nil
}

// capabilities walks the GetCapabilities response and maps each advertised
// service name to its endpoint address, extension services included.
func (s *Session) capabilities() (map[string]string, error) {
	body, err := s.call("GetCapabilities", onvifdevice.GetCapabilities{Category: "All"})
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("failed to parse capabilities response: %w", err)
	}
	caps := make(map[string]string)
	for _, path := range []string{
		"./Envelope/Body/GetCapabilitiesResponse/Capabilities/*/XAddr",
		"./Envelope/Body/GetCapabilitiesResponse/Capabilities/Extension/*/XAddr",
	} {
		for _, el := range doc.FindElements(path) {
			caps[strings.ToLower(el.Parent().Tag)] = el.Text()
		}
	}
	return caps, nil
}

type profilesEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetProfilesResponse struct {
			Profiles []struct {
				Token string `xml:"token,attr"`
				Name  string `xml:"Name"`
			} `xml:"Profiles"`
		} `xml:"GetProfilesResponse"`
	} `xml:"Body"`
}

func (s *Session) mediaProfiles() ([]models.Profile, error) {
	body, err := s.call("GetProfiles", media.GetProfiles{})
	if err != nil {
		return nil, err
	}
	var env profilesEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode media profiles: %w", err)
	}
	profiles := make([]models.Profile, 0, len(env.Body.GetProfilesResponse.Profiles))
	for _, p := range env.Body.GetProfilesResponse.Profiles {
		profiles = append(profiles, models.Profile{Token: p.Token, Name: p.Name})
	}
	return profiles, nil
}

type mediaURIEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetStreamURIResponse struct {
			MediaURI struct {
				URI string `xml:"Uri"`
			} `xml:"MediaUri"`
		} `xml:"GetStreamUriResponse"`
		GetSnapshotURIResponse struct {
			MediaURI struct {
				URI string `xml:"Uri"`
			} `xml:"MediaUri"`
		} `xml:"GetSnapshotUriResponse"`
	} `xml:"Body"`
}

// StreamURL returns the RTSP stream URL for the current profile with the
// session credentials embedded.
func (s *Session) StreamURL() (string, error) {
	body, err := s.call("GetStreamUri", media.GetStreamUri{
		StreamSetup: onvifxsd.StreamSetup{
			Stream:    onvifxsd.StreamType("RTP-Unicast"),
			Transport: onvifxsd.Transport{Protocol: "RTSP"},
		},
		ProfileToken: s.token(),
	})
	if err != nil {
		return "", err
	}
	var env mediaURIEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to decode stream URI: %w", err)
	}
	return s.withCredentials(env.Body.GetStreamURIResponse.MediaURI.URI)
}

// SnapshotURL returns the HTTP snapshot URL for the current profile, if the
// device exposes one.
func (s *Session) SnapshotURL() (string, error) {
	body, err := s.call("GetSnapshotUri", media.GetSnapshotUri{ProfileToken: s.token()})
	if err != nil {
		return "", err
	}
	var env mediaURIEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to decode snapshot URI: %w", err)
	}
	return s.withCredentials(env.Body.GetSnapshotURIResponse.MediaURI.URI)
}

func (s *Session) withCredentials(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("device returned an empty media URI")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse media URI %q: %w", raw, err)
	}
	if s.conn.Username != "" || s.conn.Password != "" {
		u.User = url.UserPassword(s.conn.Username, s.conn.Password)
	}
	return u.String(), nil
}

func (s *Session) token() onvifxsd.ReferenceToken {
	return onvifxsd.ReferenceToken(s.profileToken)
}

// call issues one SOAP request and returns the raw response body. SOAP
// faults and transport failures are mapped to structured fault categories
// here, at the first point the failure is visible, so later layers need no
// message sniffing.
func (s *Session) call(op string, req interface{}) ([]byte, error) {
	resp, err := s.dev.CallMethod(req)
	if err != nil {
		return nil, faults.New(transportCategory(err), op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.New(faults.Connection, op, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, faults.New(faults.Auth, op, fmt.Errorf("device returned %s", resp.Status))
	}
	if fault := parseFault(op, body); fault != nil {
		s.log.Debug("device fault", zap.String("op", op), zap.Error(fault))
		return nil, fault
	}
	if resp.StatusCode != http.StatusOK {
		return nil, faults.New(faults.Unclassified, op, fmt.Errorf("device returned %s", resp.Status))
	}
	return body, nil
}

// transportCategory separates client-side timeouts from other network
// failures.
func transportCategory(err error) faults.Category {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return faults.Timeout
	}
	return faults.Connection
}

// parseFault inspects a SOAP body for a Fault element and maps its subcode
// to a fault category. Returns nil when the body carries no fault.
func parseFault(op string, body []byte) *faults.Error {
	if !bytes.Contains(body, []byte("Fault")) {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil
	}
	fault := doc.FindElement("./Envelope/Body/Fault")
	if fault == nil {
		return nil
	}

	var subcode, reason string
	// The innermost Code/Subcode value is the specific one.
	for _, el := range fault.FindElements(".//Value") {
		subcode = el.Text()
	}
	if el := fault.FindElement(".//Text"); el != nil {
		reason = strings.TrimSpace(el.Text())
	}
	if reason == "" {
		reason = subcode
	}

	cat := faults.Unclassified
	switch {
	case strings.Contains(subcode, "NotAuthorized"):
		cat = faults.Auth
	case strings.Contains(subcode, "ActionNotSupported"), strings.Contains(subcode, "NoHomePosition"):
		cat = faults.Unsupported
	case strings.Contains(subcode, "NoToken"), strings.Contains(subcode, "PresetNotExist"):
		cat = faults.NotFound
	}
	return faults.New(cat, op, fmt.Errorf("device fault: %s", reason))
}
