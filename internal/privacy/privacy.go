// Package privacy decides whether a captured clipboard string should be kept
// out of history.
package privacy

import (
	"strings"
	"unicode"
)

const (
	minSecretLen  = 12
	longSecretLen = 16
)

// IsPasswordLike is a conservative heuristic for text that might be a
// secret: no spaces and either at least 16 characters long, or at least 12
// characters drawing on two or more of lower, upper, digit and other
// character classes. False positives are expected; callers make it optional.
func IsPasswordLike(text string) bool {
	if len([]rune(text)) < minSecretLen {
		return false
	}
	s := strings.TrimSpace(text)
	if strings.Contains(s, " ") {
		return false
	}
	n := len([]rune(s))
	if n >= longSecretLen {
		return true
	}

	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	classes := 0
	for _, b := range []bool{lower, upper, digit, other} {
		if b {
			classes++
		}
	}
	return classes >= 2 && n >= minSecretLen
}

// Filter combines the password heuristic with case-insensitive substring
// patterns such as "token=" or "authorization: bearer".
type Filter struct {
	PasswordLike bool
	Patterns     []string
}

// NewFilter returns a Filter with blank patterns dropped and the rest
// lower-cased.
func NewFilter(passwordLike bool, patterns []string) *Filter {
	f := &Filter{PasswordLike: passwordLike}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			f.Patterns = append(f.Patterns, p)
		}
	}
	return f
}

// ShouldIgnore reports whether text must not be recorded. Blank text is
// always ignored. A nil Filter ignores only blank text.
func (f *Filter) ShouldIgnore(text string) bool {
	s := strings.TrimFunc(text, unicode.IsSpace)
	if s == "" {
		return true
	}
	if f == nil {
		return false
	}
	if f.PasswordLike && IsPasswordLike(s) {
		return true
	}
	if len(f.Patterns) == 0 {
		return false
	}
	low := strings.ToLower(s)
	for _, p := range f.Patterns {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}
