// Package validate holds the pure predicate checks run before any network
// call is made.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Address checks that value is a canonical IPv4 dotted quad: four
// dot-separated decimal groups, each in [0, 255], with no leading zeros or
// other textual artifacts (re-serializing the parsed octet must reproduce
// the group exactly).
func Address(value string) error {
	groups := strings.Split(value, ".")
	if len(groups) != 4 {
		return fmt.Errorf("invalid address %q: expected four dot-separated octets", value)
	}
	for _, group := range groups {
		n, err := strconv.Atoi(group)
		if err != nil || n < 0 || n > 255 {
			return fmt.Errorf("invalid address %q: octet %q must be a number between 0 and 255", value, group)
		}
		if strconv.Itoa(n) != group {
			return fmt.Errorf("invalid address %q: octet %q is not in canonical form", value, group)
		}
	}
	return nil
}

// Range checks min <= value <= max (inclusive) and rejects NaN. The error
// message names the offending parameter and both bounds.
func Range(value, min, max float64, label string) error {
	if math.IsNaN(value) || value < min || value > max {
		return fmt.Errorf("%s must be between %g and %g, got %v", label, min, max, value)
	}
	return nil
}
