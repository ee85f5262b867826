// Package tagname turns requested tag names into the forms used for storage
// and for equality under a case policy.
package tagname

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/pkordes/tag-registry/internal/domain"
)

// Comparable is the normalized form of a name used for equality checks.
// It is never persisted.
type Comparable string

// Normalizer produces Comparable names under a fixed case policy.
type Normalizer struct {
	strict bool
}

// NewNormalizer returns a Normalizer. With strict set, names compare byte for
// byte; otherwise ASCII letters are folded to lowercase.
func NewNormalizer(strict bool) Normalizer {
	return Normalizer{strict: strict}
}

// Strict reports whether the normalizer is case-sensitive.
func (n Normalizer) Strict() bool { return n.strict }

// Mode returns the storage comparison mode matching the policy.
func (n Normalizer) Mode() domain.ComparisonMode {
	if n.strict {
		return domain.CompareBinary
	}
	return domain.CompareFolded
}

// Comparable returns the comparable form of name: its canonical (NFC) byte
// sequence, ASCII-lowercased unless the policy is strict.
func (n Normalizer) Comparable(name string) Comparable {
	forced := Canonical(name)
	if n.strict {
		return Comparable(forced)
	}
	return Comparable(FoldASCII(forced))
}

// Canonical returns name in Unicode normalization form C, so that the same
// text entered with combining sequences or precomposed characters compares
// and stores identically.
func Canonical(name string) string {
	return norm.NFC.String(name)
}

// FoldASCII lowercases A-Z and leaves every other byte untouched. Unlike
// strings.ToLower it never changes the byte length or touches multi-byte
// sequences, which keeps it in step with SQL lower() on byte strings.
func FoldASCII(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool { return 'A' <= r && r <= 'Z' })
	if i < 0 {
		return s
	}
	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Clean trims surrounding whitespace and canonicalizes name, then checks the
// registry's length rules. The error wraps domain.ErrValidation.
func Clean(name string) (string, error) {
	cleaned := Canonical(strings.TrimSpace(name))
	if cleaned == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if n := utf8.RuneCountInString(cleaned); n > domain.MaxTagNameLength {
		return "", fmt.Errorf("%w: name is too long (%d characters, maximum is %d)",
			domain.ErrValidation, n, domain.MaxTagNameLength)
	}
	return cleaned, nil
}
