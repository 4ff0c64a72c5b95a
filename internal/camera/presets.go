package camera

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/use-go/onvif/ptz"
	"github.com/use-go/onvif/xsd"
	onvifxsd "github.com/use-go/onvif/xsd/onvif"

	"tapocam-cli/pkg/models"
)

// presetsEnvelope mirrors the GetPresets SOAP response. The Preset element
// appears once for a single stored preset and repeats for several; the
// slice field absorbs both shapes, so the array-or-singleton ambiguity of
// the wire format never escapes this boundary.
type presetsEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetPresetsResponse struct {
			Preset []struct {
				Token string `xml:"token,attr"`
				Name  string `xml:"Name"`
			} `xml:"Preset"`
		} `xml:"GetPresetsResponse"`
	} `xml:"Body"`
}

// extractPresets normalizes the raw GetPresets payload to a flat list.
// Absent or malformed input yields an empty list, never an error.
func extractPresets(body []byte) []models.Preset {
	var env presetsEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return []models.Preset{}
	}
	presets := make([]models.Preset, 0, len(env.Body.GetPresetsResponse.Preset))
	for _, p := range env.Body.GetPresetsResponse.Preset {
		presets = append(presets, models.Preset{Token: p.Token, Name: p.Name})
	}
	return presets
}

// FindPreset resolves identifier against presets: an exact token match or,
// for presets with a non-empty name, a case-insensitive name match. First
// match wins; a miss returns found=false so callers can list alternatives.
func FindPreset(presets []models.Preset, identifier string) (models.Preset, bool) {
	for _, p := range presets {
		if p.Token == identifier {
			return p, true
		}
		if p.Name != "" && strings.EqualFold(p.Name, identifier) {
			return p, true
		}
	}
	return models.Preset{}, false
}

// Presets fetches the device's stored presets for the current profile.
func (s *Session) Presets() ([]models.Preset, error) {
	body, err := s.call("GetPresets", ptz.GetPresets{ProfileToken: s.token()})
	if err != nil {
		return nil, err
	}
	return extractPresets(body), nil
}

type setPresetEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		SetPresetResponse struct {
			PresetToken string `xml:"PresetToken"`
		} `xml:"SetPresetResponse"`
	} `xml:"Body"`
}

// SavePreset stores the current position as a preset. Either field may be
// empty: with no token the camera assigns one, with no name the preset is
// unnamed. Returns the token the preset ended up under.
func (s *Session) SavePreset(name, token string) (string, error) {
	req := ptz.SetPreset{ProfileToken: s.token()}
	if name != "" {
		req.PresetName = xsd.String(name)
	}
	if token != "" {
		req.PresetToken = onvifxsd.ReferenceToken(token)
	}
	body, err := s.call("SetPreset", req)
	if err != nil {
		return "", err
	}
	var env setPresetEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to decode SetPreset response: %w", err)
	}
	assigned := env.Body.SetPresetResponse.PresetToken
	if assigned == "" {
		assigned = token
	}
	return assigned, nil
}

// GotoPreset moves the camera to the preset identified by token.
func (s *Session) GotoPreset(token string, speed float64) error {
	_, err := s.call("GotoPreset", ptz.GotoPreset{
		ProfileToken: s.token(),
		PresetToken:  onvifxsd.ReferenceToken(token),
		Speed:        speedVector(speed),
	})
	return err
}

// RemovePreset deletes the preset identified by token.
func (s *Session) RemovePreset(token string) error {
	_, err := s.call("RemovePreset", ptz.RemovePreset{
		ProfileToken: s.token(),
		PresetToken:  onvifxsd.ReferenceToken(token),
	})
	return err
}
