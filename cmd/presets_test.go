package cmd

import (
	"testing"

	"go.viam.com/test"
)

func TestParsePresetSpeed(t *testing.T) {
	setSpeed := func(v string) {
		presetSpeed = v
		t.Cleanup(func() { presetSpeed = "" })
	}

	setSpeed("")
	speed, err := parsePresetSpeed()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, speed, test.ShouldEqual, defaultSpeed)

	setSpeed("0.7")
	speed, err = parsePresetSpeed()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, speed, test.ShouldEqual, 0.7)

	// Trailing garbage is a parse error, not a silent truncation.
	setSpeed("0.5x")
	_, err = parsePresetSpeed()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not a number")

	setSpeed("1.5")
	_, err = parsePresetSpeed()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "speed must be between")

	setSpeed("-0.1")
	_, err = parsePresetSpeed()
	test.That(t, err, test.ShouldNotBeNil)
}
