package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeDomain lowercases a domain name and converts it to its punycode
// form so that comparisons across the snapshot are case- and
// encoding-insensitive.
func NormalizeDomain(name string) (string, error) {
	lowercase := strings.ToLower(strings.TrimSpace(name))
	if lowercase == "" {
		return "", fmt.Errorf("empty domain name")
	}

	ascii, err := idna.ToASCII(lowercase)
	if err != nil {
		return "", fmt.Errorf("invalid domain name '%s': %w", name, err)
	}
	if !isDomainName(ascii) {
		return "", fmt.Errorf("invalid domain name '%s'", name)
	}

	return ascii, nil
}

// isDomainName checks the syntax of a DNS name: dot-separated labels of
// letters, digits and hyphens, none empty, none longer than 63 bytes, no
// leading or trailing hyphen.
func isDomainName(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}

	last := byte('.')
	nonNumeric := false
	labelLen := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || c == '_':
			nonNumeric = true
			labelLen++
		case '0' <= c && c <= '9':
			labelLen++
		case c == '-':
			if last == '.' {
				return false
			}
			labelLen++
			nonNumeric = true
		case c == '.':
			if last == '.' || last == '-' {
				return false
			}
			if labelLen > 63 || labelLen == 0 {
				return false
			}
			labelLen = 0
		default:
			return false
		}
		last = c
	}
	if last == '-' || labelLen > 63 {
		return false
	}

	return nonNumeric
}
