package domain

import (
	"regexp"
	"strings"
)

var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// NormalizePhone strips spaces, dashes and an optional +91 or 0 prefix from
// an Indian mobile number. ok reports whether the result is a valid
// ten-digit mobile number.
func NormalizePhone(raw string) (phone string, ok bool) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, raw)
	switch {
	case strings.HasPrefix(s, "+91"):
		s = s[3:]
	case len(s) == 12 && strings.HasPrefix(s, "91"):
		s = s[2:]
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		s = s[1:]
	}
	return s, mobilePattern.MatchString(s)
}
