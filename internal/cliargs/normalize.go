// Package cliargs rewrites raw command-line tokens before the flag parser
// sees them, so that signed numeric values are not mistaken for flag names.
package cliargs

import "strings"

// Normalize fuses each ("--name", "value") adjacent pair into a single
// "--name=value" token when name is in the numeric set and value looks like
// a number. Without this, pflag treats a value such as "-0.8" as the next
// flag. This must run before parsing, and the affected flags must also be
// declared string-typed on the command so the parser performs no numeric
// coercion of its own; the two measures are independent and both required.
func Normalize(args []string, numeric map[string]bool) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, ok := flagName(arg)
		if ok && numeric[name] && i+1 < len(args) && looksNumeric(args[i+1]) {
			out = append(out, arg+"="+args[i+1])
			i++
			continue
		}
		out = append(out, arg)
	}
	return out
}

// flagName extracts the name from a "--name" token. Tokens already carrying
// "=" need no fusing.
func flagName(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "--") || strings.Contains(arg, "=") {
		return "", false
	}
	return strings.TrimPrefix(arg, "--"), true
}

// looksNumeric is a purely syntactic check: an optional leading '-'
// followed by a digit or a decimal point.
func looksNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	return (s[0] >= '0' && s[0] <= '9') || s[0] == '.'
}
