package sequence

import (
	"fmt"
	"strconv"
)

// Kind distinguishes the two token types of a Sequence
type Kind uint8

const (
	// KindSize marks a quantized DNS message size
	KindSize Kind = iota
	// KindGap marks a quantized time gap since the previous message
	KindGap
)

func (k Kind) String() string {
	switch k {
	case KindSize:
		return "size"
	case KindGap:
		return "gap"
	default:
		return "unknown"
	}
}

// Token is one element of a Sequence. Tokens are comparable with ==.
type Token struct {
	Kind      Kind
	Magnitude uint16
}

// Size returns a size token with the given quantized magnitude
func Size(m uint16) Token {
	return Token{Kind: KindSize, Magnitude: m}
}

// Gap returns a gap token with the given quantized magnitude
func Gap(m uint16) Token {
	return Token{Kind: KindGap, Magnitude: m}
}

// IsGap reports whether the token is a gap token
func (t Token) IsGap() bool {
	return t.Kind == KindGap
}

// String renders the token as `S01` or `G05`
func (t Token) String() string {
	prefix := byte('S')
	if t.IsGap() {
		prefix = 'G'
	}
	return fmt.Sprintf("%c%02d", prefix, t.Magnitude)
}

// MarshalText implements encoding.TextMarshaler
func (t Token) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Token) UnmarshalText(text []byte) error {
	parsed, err := ParseToken(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseToken parses the `S01` / `G05` text form of a token
func ParseToken(s string) (Token, error) {
	if len(s) < 2 {
		return Token{}, fmt.Errorf("token %q must be at least 2 characters long, in the format `S00` or `G00`", s)
	}

	m, err := strconv.ParseUint(s[1:], 10, 16)
	if err != nil {
		return Token{}, fmt.Errorf("token %q must end in digits: %w", s, err)
	}

	switch s[0] {
	case 'S':
		return Size(uint16(m)), nil
	case 'G':
		return Gap(uint16(m)), nil
	default:
		return Token{}, fmt.Errorf("token %q must start with `S` or `G`", s)
	}
}
