package camera

import (
	"encoding/xml"
	"strconv"

	"github.com/use-go/onvif/ptz"

	"tapocam-cli/pkg/models"
)

// statusEnvelope mirrors the GetStatus SOAP response. The vector components
// live in element attributes; they are kept as strings so a value that
// fails to parse degrades to "unavailable" instead of a decode error.
type statusEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetStatusResponse struct {
			PTZStatus struct {
				Position *struct {
					PanTilt *struct {
						X string `xml:"x,attr"`
						Y string `xml:"y,attr"`
					} `xml:"PanTilt"`
					Zoom *struct {
						X string `xml:"x,attr"`
					} `xml:"Zoom"`
				} `xml:"Position"`
			} `xml:"PTZStatus"`
		} `xml:"GetStatusResponse"`
	} `xml:"Body"`
}

// extractPosition normalizes the raw GetStatus payload into a pan/tilt/zoom
// tuple. Cameras that advertise PTZ without reporting a position omit the
// status substructure entirely; that is not an error, the position is
// simply unavailable.
func extractPosition(body []byte) (models.PTZVector, bool) {
	var env statusEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return models.PTZVector{}, false
	}
	pos := env.Body.GetStatusResponse.PTZStatus.Position
	if pos == nil || pos.PanTilt == nil || pos.Zoom == nil {
		return models.PTZVector{}, false
	}
	pan, errPan := strconv.ParseFloat(pos.PanTilt.X, 64)
	tilt, errTilt := strconv.ParseFloat(pos.PanTilt.Y, 64)
	zoom, errZoom := strconv.ParseFloat(pos.Zoom.X, 64)
	if errPan != nil || errTilt != nil || errZoom != nil {
		return models.PTZVector{}, false
	}
	return models.PTZVector{Pan: pan, Tilt: tilt, Zoom: zoom}, true
}

// PTZStatus queries the device's current position. The boolean reports
// whether a position was actually available in the response.
func (s *Session) PTZStatus() (models.PTZVector, bool, error) {
	body, err := s.call("GetStatus", ptz.GetStatus{ProfileToken: s.token()})
	if err != nil {
		return models.PTZVector{}, false, err
	}
	pos, ok := extractPosition(body)
	return pos, ok, nil
}
