// Package middleware provides HTTP middleware for the Tipgrid API.
package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Validation limits.
const (
	// MaxUsernameLength is the maximum length for a profile username.
	MaxUsernameLength = 20

	// MinUsernameLength is the minimum length for a profile username.
	MinUsernameLength = 3

	// MaxLinkURLLength is the maximum length for outbound link URLs.
	MaxLinkURLLength = 2048
)

// Validation errors.
var (
	ErrUsernameTooLong  = errors.New("username exceeds maximum length")
	ErrUsernameTooShort = errors.New("username is too short")
	ErrUsernameInvalid  = errors.New("username contains invalid characters")
	ErrUsernameReserved = errors.New("username is reserved")
	ErrUsernameNotASCII = errors.New("username contains non-ascii characters")
	ErrLinkURLTooLong   = errors.New("link URL exceeds maximum length")
	ErrLinkURLInvalid   = errors.New("link URL is invalid")
	ErrLinkURLUnsafe    = errors.New("link URL uses unsafe scheme")
)

// ReservedUsernames contains handles that cannot be claimed as profile
// subdomains. These are reserved for system routes and infrastructure.
var ReservedUsernames = map[string]bool{
	// Infrastructure subdomains
	"www":     true,
	"api":     true,
	"admin":   true,
	"app":     true,
	"blog":    true,
	"help":    true,
	"support": true,
	"mail":    true,
	"email":   true,
	"ftp":     true,
	"smtp":    true,
	"pop":     true,
	"imap":    true,
	"ns1":     true,
	"ns2":     true,
	"dns":     true,
	"web":     true,
	"site":    true,
	"home":    true,

	// Auth and account routes
	"login":     true,
	"logout":    true,
	"signup":    true,
	"signin":    true,
	"register":  true,
	"auth":      true,
	"oauth":     true,
	"dashboard": true,
	"profile":   true,
	"settings":  true,
	"account":   true,
	"user":      true,
	"users":     true,

	// Brand protection
	"tipgrid":  true,
	"tip-grid": true,
}

// validUsernamePattern matches valid username characters.
// Allowed: a-z, 0-9, hyphen. Uppercase is normalized away before validation.
var validUsernamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// NormalizeUsername converts free-form input into a candidate handle:
// lowercased, special characters stripped, edge hyphens trimmed, capped
// at the maximum length.
func NormalizeUsername(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	s = strings.Trim(b.String(), "-")

	if len(s) > MaxUsernameLength {
		s = s[:MaxUsernameLength]
	}
	return s
}

// ValidateUsername validates a profile handle for use as a subdomain.
func ValidateUsername(username string) error {
	for _, r := range username {
		if r > unicode.MaxASCII {
			return ErrUsernameNotASCII
		}
	}

	if len(username) < MinUsernameLength {
		return ErrUsernameTooShort
	}

	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}

	if !validUsernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}

	// Hyphens may not lead, trail, or repeat
	if strings.HasPrefix(username, "-") || strings.HasSuffix(username, "-") || strings.Contains(username, "--") {
		return ErrUsernameInvalid
	}

	if ReservedUsernames[username] {
		return ErrUsernameReserved
	}

	return nil
}

// ValidateLinkURL validates an outbound link URL recorded on click events.
func ValidateLinkURL(url string) error {
	if len(url) > MaxLinkURLLength {
		return ErrLinkURLTooLong
	}

	// Basic scheme validation
	lowerURL := strings.ToLower(url)
	if !strings.HasPrefix(lowerURL, "http://") && !strings.HasPrefix(lowerURL, "https://") {
		return ErrLinkURLInvalid
	}

	// Block dangerous schemes (in case of URL encoding tricks)
	forbiddenSchemes := []string{"javascript:", "data:", "vbscript:", "file:"}
	for _, scheme := range forbiddenSchemes {
		if strings.Contains(lowerURL, scheme) {
			return ErrLinkURLUnsafe
		}
	}

	return nil
}
