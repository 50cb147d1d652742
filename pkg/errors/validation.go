package errors

import (
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// ValidateChannelName validates a pub/sub channel name.
// Names must be non-empty, at most 256 bytes, and free of whitespace and
// control characters.
func ValidateChannelName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "channel name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "channel name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "channel name contains whitespace or control characters")
		}
	}
	return nil
}

// ValidateStreamURL validates a WebSocket feed URL.
// Only ws and wss schemes with a host are accepted.
func ValidateStreamURL(raw string) error {
	return validateURL(raw, "stream", "ws", "wss")
}

// ValidateExplorerURL validates a block explorer base URL.
// Only http and https schemes with a host are accepted.
func ValidateExplorerURL(raw string) error {
	return validateURL(raw, "explorer", "http", "https")
}

func validateURL(raw, kind string, schemes ...string) error {
	if raw == "" {
		return New(ErrCodeInvalidURL, "%s URL cannot be empty", kind)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "parse %s URL", kind)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return New(ErrCodeInvalidURL, "%s URL scheme must be %s, got %q", kind, strings.Join(schemes, " or "), u.Scheme)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "%s URL has no host", kind)
	}
	return nil
}

// ValidatePath validates a local feed file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 4096 {
		return New(ErrCodeInvalidPath, "path too long (max 4096 characters)")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "path contains null byte")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}
	return nil
}
