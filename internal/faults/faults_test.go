package faults

import (
	"errors"
	"fmt"
	"testing"

	"go.viam.com/test"
)

func TestClassifyStructuredWins(t *testing.T) {
	// A structured category takes priority even when the message text
	// suggests another class.
	err := New(Auth, "connect", errors.New("connection refused"))
	test.That(t, Classify(err), test.ShouldEqual, Auth)
}

func TestClassifyWrapped(t *testing.T) {
	inner := New(Timeout, "GetStatus", errors.New("context deadline exceeded"))
	wrapped := fmt.Errorf("status query: %w", inner)
	test.That(t, Classify(wrapped), test.ShouldEqual, Timeout)
	test.That(t, Is(wrapped, Timeout), test.ShouldBeTrue)
	test.That(t, Is(wrapped, Connection), test.ShouldBeFalse)
}

func TestClassifyTextFallback(t *testing.T) {
	cases := []struct {
		msg  string
		want Category
	}{
		{"dial tcp 192.168.1.60:2020: connect: connection refused", Connection},
		{"dial tcp 192.168.1.60:2020: connect: no route to host", Connection},
		{"read tcp: i/o timeout", Connection},
		{"device returned 401 Unauthorized", Auth},
		{"user not authorized", Auth},
		{`exec: "ffmpeg": executable file not found in $PATH`, TranscoderMissing},
		{"context deadline exceeded", Timeout},
		{"operation timed out", Timeout},
		{"something else entirely", Unclassified},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			test.That(t, Classify(errors.New(tc.msg)), test.ShouldEqual, tc.want)
		})
	}
}

func TestDescribe(t *testing.T) {
	err := New(Auth, "GetPresets", errors.New("device fault: NotAuthorized"))
	out := Describe(err)
	test.That(t, out, test.ShouldContainSubstring, "authentication failed")
	test.That(t, out, test.ShouldContainSubstring, "username and password")

	// Unclassified passes through unchanged.
	plain := errors.New("something else entirely")
	test.That(t, Describe(plain), test.ShouldEqual, "something else entirely")
}

func TestErrorFormat(t *testing.T) {
	err := New(Connection, "connect 192.168.1.60:2020", errors.New("refused"))
	test.That(t, err.Error(), test.ShouldEqual, "connect 192.168.1.60:2020: refused")

	bare := New(Connection, "", errors.New("refused"))
	test.That(t, bare.Error(), test.ShouldEqual, "refused")
}
