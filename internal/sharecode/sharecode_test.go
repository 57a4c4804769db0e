package sharecode

import (
	"strings"
	"testing"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	for _, length := range []int{6, 7, 8} {
		gen := NewGenerator(length)
		for i := 0; i < 1000; i++ {
			code := gen.Generate()
			if len(code) != length {
				t.Fatalf("expected length %d, got %q", length, code)
			}
			for _, r := range code {
				if !strings.ContainsRune(Alphabet, r) {
					t.Fatalf("code %q contains %q outside the alphabet", code, r)
				}
			}
		}
	}
}

func TestGenerate_NoConfusableCharacters(t *testing.T) {
	t.Parallel()

	for _, forbidden := range []string{"O", "I", "0", "1"} {
		if strings.Contains(Alphabet, forbidden) {
			t.Errorf("alphabet must not contain %q", forbidden)
		}
	}
	if len(Alphabet) != 32 {
		t.Errorf("expected 32-character alphabet, got %d", len(Alphabet))
	}
}

func TestNewGenerator_ClampsLength(t *testing.T) {
	t.Parallel()

	if got := NewGenerator(3).Length(); got != MinLength {
		t.Errorf("expected clamp to %d, got %d", MinLength, got)
	}
	if got := NewGenerator(20).Length(); got != MaxLength {
		t.Errorf("expected clamp to %d, got %d", MaxLength, got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"abc-def":   "ABCDEF",
		"ABC DEF":   "ABCDEF",
		" ab-cd-ef": "ABCDEF",
		"ABCDEF":    "ABCDEF",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	valid := []string{"ABCDEF", "ZZZZ9999", "H2J3K4L"}
	for _, code := range valid {
		if !Valid(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}

	invalid := []string{"", "ABC", "ABCDEFGHJ", "ABCDE0", "ABCDEI", "abcdef", "ABC-EF"}
	for _, code := range invalid {
		if Valid(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	if got := Format("ABCDEF"); got != "ABC-DEF" {
		t.Errorf("Format = %q, want ABC-DEF", got)
	}
	if got := Format("ABCDEFG"); got != "ABC-DEFG" {
		t.Errorf("Format = %q, want ABC-DEFG", got)
	}
	// Round trip through Normalize.
	if got := Normalize(Format("ABCDEF")); got != "ABCDEF" {
		t.Errorf("normalize(format) = %q, want ABCDEF", got)
	}
}

func TestGenerate_Distribution(t *testing.T) {
	t.Parallel()

	// 10k codes of length 6 over a 32^6 space should never collide.
	gen := NewGenerator(6)
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		code := gen.Generate()
		if seen[code] {
			t.Fatalf("duplicate code %q after %d generations", code, i)
		}
		seen[code] = true
	}
}
