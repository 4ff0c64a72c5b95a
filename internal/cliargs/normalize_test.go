package cliargs

import (
	"testing"

	"github.com/spf13/pflag"
	"go.viam.com/test"
)

var moveFlags = map[string]bool{"pan": true, "tilt": true, "zoom": true, "speed": true}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "negative value fused",
			in:   []string{"move", "--pan", "-0.5"},
			out:  []string{"move", "--pan=-0.5"},
		},
		{
			name: "positive value fused",
			in:   []string{"move", "--tilt", "0.3"},
			out:  []string{"move", "--tilt=0.3"},
		},
		{
			name: "multiple numeric flags",
			in:   []string{"move", "--pan", "-0.5", "--tilt", "-1", "--speed", ".8"},
			out:  []string{"move", "--pan=-0.5", "--tilt=-1", "--speed=.8"},
		},
		{
			name: "already fused untouched",
			in:   []string{"move", "--pan=-0.5"},
			out:  []string{"move", "--pan=-0.5"},
		},
		{
			name: "non-numeric flag untouched",
			in:   []string{"move", "--address", "192.168.1.60"},
			out:  []string{"move", "--address", "192.168.1.60"},
		},
		{
			name: "numeric flag with non-numeric value untouched",
			in:   []string{"move", "--pan", "abc"},
			out:  []string{"move", "--pan", "abc"},
		},
		{
			name: "trailing flag without value",
			in:   []string{"move", "--pan"},
			out:  []string{"move", "--pan"},
		},
		{
			name: "empty",
			in:   []string{},
			out:  []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, Normalize(tc.in, moveFlags), test.ShouldResemble, tc.out)
		})
	}
}

// The whole point of fusing is that pflag then accepts a leading minus in
// the value. Prove the round trip.
func TestNormalizedArgsParse(t *testing.T) {
	fs := pflag.NewFlagSet("move", pflag.ContinueOnError)
	pan := fs.String("pan", "", "")

	err := fs.Parse(Normalize([]string{"--pan", "-0.8"}, moveFlags))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *pan, test.ShouldEqual, "-0.8")
}
