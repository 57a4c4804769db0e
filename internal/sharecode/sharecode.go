// Package sharecode issues and normalizes the short public codes that
// identify trips. Codes use an alphabet with the visually confusable
// characters (O, I, 0, 1) removed so they survive being read aloud or
// scribbled on a napkin.
package sharecode

import (
	"crypto/rand"
	"strings"
)

// Alphabet is the 32-character code alphabet: A-Z and 2-9 minus O, I, 0, 1.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	MinLength     = 6
	MaxLength     = 8
	DefaultLength = 6
)

// Generator produces random share code candidates of a fixed length.
// It makes no uniqueness promise; callers check candidates against the
// store and retry.
type Generator struct {
	length int
}

// NewGenerator creates a generator for codes of the given length,
// clamped to the supported range.
func NewGenerator(length int) *Generator {
	if length < MinLength {
		length = MinLength
	}
	if length > MaxLength {
		length = MaxLength
	}
	return &Generator{length: length}
}

// Length returns the configured code length.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a fresh random candidate code.
func (g *Generator) Generate() string {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("sharecode: rand.Read: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf)
}

// Normalize maps user input to canonical form: uppercased, with spaces and
// hyphens stripped. It does not validate.
func Normalize(code string) string {
	code = strings.ToUpper(code)
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Valid reports whether a normalized code has an acceptable length and only
// uses the code alphabet.
func Valid(code string) bool {
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// Format returns the display form of a code: a hyphen inserted at the
// midpoint (ABC-DEF).
func Format(code string) string {
	if len(code) < 2 {
		return code
	}
	mid := len(code) / 2
	return code[:mid] + "-" + code[mid:]
}
