// Package sanitize cleans variable values received from remote callers.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/promptdown/pkg/domain"
)

var (
	// DefaultMaxValueSize bounds one string value (64KB).
	DefaultMaxValueSize = 64 << 10
	// EnvMaxValueSize is the environment variable to override the default
	EnvMaxValueSize = "PROMPTDOWN_MAX_VALUE_SIZE"
)

var (
	ErrValueTooLarge = errors.New("value exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("value contains invalid UTF-8 sequences")
)

// String enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized values
// are rejected rather than truncated.
func String(s string) (string, error) {
	limit := maxValueSize()
	if len(s) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrValueTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Variables returns a copy of vars with every string, at any depth, passed
// through String. Map keys are checked too. Errors name the offending path.
func Variables(vars domain.Variables) (domain.Variables, error) {
	if vars == nil {
		return nil, nil
	}
	out, err := value("", map[string]any(vars))
	if err != nil {
		return nil, err
	}
	return domain.Variables(out.(map[string]any)), nil
}

func value(path string, v any) (any, error) {
	switch x := v.(type) {
	case string:
		s, err := String(x)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", path, err)
		}
		return s, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, elem := range x {
			key, err := String(k)
			if err != nil {
				return nil, fmt.Errorf("variable name %q: %w", join(path, k), err)
			}
			if out[key], err = value(join(path, key), elem); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			var err error
			if out[i], err = value(fmt.Sprintf("%s[%d]", path, i), elem); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return v, nil
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxValueSize() int {
	if val := os.Getenv(EnvMaxValueSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxValueSize
}
