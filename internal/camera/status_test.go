package camera

import (
	"testing"

	"go.viam.com/test"

	"tapocam-cli/pkg/models"
)

const statusResponse = `<tptz:GetStatusResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
<tptz:PTZStatus><tt:Position>
<tt:PanTilt x="-0.44" y="0.31"/>
<tt:Zoom x="0"/>
</tt:Position></tptz:PTZStatus></tptz:GetStatusResponse>`

func TestExtractPosition(t *testing.T) {
	pos, ok := extractPosition([]byte(envelope(statusResponse)))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pos, test.ShouldResemble, models.PTZVector{Pan: -0.44, Tilt: 0.31, Zoom: 0})
}

func TestExtractPositionUnavailable(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "empty status",
			body: envelope(`<tptz:GetStatusResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl"><tptz:PTZStatus/></tptz:GetStatusResponse>`),
		},
		{
			name: "position without zoom",
			body: envelope(`<tptz:GetStatusResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
<tptz:PTZStatus><tt:Position><tt:PanTilt x="0" y="0"/></tt:Position></tptz:PTZStatus></tptz:GetStatusResponse>`),
		},
		{
			name: "non-numeric attribute",
			body: envelope(`<tptz:GetStatusResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
<tptz:PTZStatus><tt:Position><tt:PanTilt x="wat" y="0"/><tt:Zoom x="0"/></tt:Position></tptz:PTZStatus></tptz:GetStatusResponse>`),
		},
		{
			name: "not xml",
			body: "{}",
		},
		{
			name: "empty body",
			body: envelope(""),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := extractPosition([]byte(tc.body))
			test.That(t, ok, test.ShouldBeFalse)
		})
	}
}

func TestPTZStatus(t *testing.T) {
	responses := bootstrapResponses()
	responses["ptz.GetStatus"] = envelope(statusResponse)
	dev := &fakeDevice{responses: responses}
	s := newTestSession(t, dev, "")

	pos, ok, err := s.PTZStatus()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pos.Pan, test.ShouldEqual, -0.44)

	calls := dev.callsOfType("ptz.GetStatus")
	test.That(t, calls, test.ShouldHaveLength, 1)
}
