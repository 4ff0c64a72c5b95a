package camera

import (
	"testing"

	"github.com/use-go/onvif/ptz"
	"go.viam.com/test"

	"tapocam-cli/pkg/models"
)

func presetsBody(presets string) string {
	return envelope(`<tptz:GetPresetsResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">` + presets + `</tptz:GetPresetsResponse>`)
}

func TestExtractPresetsSingle(t *testing.T) {
	body := presetsBody(`<tptz:Preset token="1"><tt:Name>front door</tt:Name></tptz:Preset>`)
	presets := extractPresets([]byte(body))
	test.That(t, presets, test.ShouldResemble, []models.Preset{{Token: "1", Name: "front door"}})
}

func TestExtractPresetsMultiple(t *testing.T) {
	body := presetsBody(`<tptz:Preset token="1"><tt:Name>front door</tt:Name></tptz:Preset>
<tptz:Preset token="2"><tt:Name>driveway</tt:Name></tptz:Preset>
<tptz:Preset token="3"/>`)
	presets := extractPresets([]byte(body))
	test.That(t, presets, test.ShouldHaveLength, 3)
	test.That(t, presets[1].Name, test.ShouldEqual, "driveway")
	test.That(t, presets[2], test.ShouldResemble, models.Preset{Token: "3", Name: ""})
}

func TestExtractPresetsDegenerate(t *testing.T) {
	test.That(t, extractPresets([]byte(presetsBody(""))), test.ShouldBeEmpty)
	test.That(t, extractPresets([]byte("not xml at all")), test.ShouldBeEmpty)
	test.That(t, extractPresets(nil), test.ShouldBeEmpty)
}

func TestFindPreset(t *testing.T) {
	presets := []models.Preset{
		{Token: "1", Name: "Front Door"},
		{Token: "2", Name: "driveway"},
		{Token: "3", Name: ""},
	}

	p, found := FindPreset(presets, "2")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, p.Name, test.ShouldEqual, "driveway")

	// Name match is case-insensitive.
	p, found = FindPreset(presets, "front door")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, p.Token, test.ShouldEqual, "1")

	// Unnamed presets never match by empty name.
	_, found = FindPreset(presets, "")
	test.That(t, found, test.ShouldBeFalse)

	_, found = FindPreset(presets, "garage")
	test.That(t, found, test.ShouldBeFalse)
}

func TestSavePreset(t *testing.T) {
	responses := bootstrapResponses()
	responses["ptz.SetPreset"] = envelope(`<tptz:SetPresetResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl"><tptz:PresetToken>7</tptz:PresetToken></tptz:SetPresetResponse>`)
	dev := &fakeDevice{responses: responses}
	s := newTestSession(t, dev, "")

	token, err := s.SavePreset("front door", "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, token, test.ShouldEqual, "7")

	calls := dev.callsOfType("ptz.SetPreset")
	test.That(t, calls, test.ShouldHaveLength, 1)
	req := calls[0].(ptz.SetPreset)
	test.That(t, string(req.ProfileToken), test.ShouldEqual, "profile_1")
	test.That(t, string(req.PresetName), test.ShouldEqual, "front door")
}

func TestSavePresetKeepsRequestedToken(t *testing.T) {
	// The device echoes no token back; the caller-supplied one stands.
	responses := bootstrapResponses()
	responses["ptz.SetPreset"] = envelope(`<tptz:SetPresetResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl"/>`)
	dev := &fakeDevice{responses: responses}
	s := newTestSession(t, dev, "")

	token, err := s.SavePreset("spot", "9")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, token, test.ShouldEqual, "9")
}

func TestGotoAndRemovePreset(t *testing.T) {
	dev := &fakeDevice{responses: bootstrapResponses()}
	s := newTestSession(t, dev, "")

	test.That(t, s.GotoPreset("2", 0.5), test.ShouldBeNil)
	gotos := dev.callsOfType("ptz.GotoPreset")
	test.That(t, gotos, test.ShouldHaveLength, 1)
	req := gotos[0].(ptz.GotoPreset)
	test.That(t, string(req.PresetToken), test.ShouldEqual, "2")
	test.That(t, req.Speed.PanTilt.X, test.ShouldEqual, 0.5)

	test.That(t, s.RemovePreset("2"), test.ShouldBeNil)
	test.That(t, dev.callsOfType("ptz.RemovePreset"), test.ShouldHaveLength, 1)
}
