package sequence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Observation is one ingested (is_gap, magnitude) pair
type Observation struct {
	IsGap     bool
	Magnitude uint16
}

// Sequence is the quantized, ordered representation of one recorded website visit.
//
// A Sequence may be empty. It is not safe to Append while other goroutines read it;
// sequences are assembled first and treated as immutable afterwards.
type Sequence struct {
	id     string
	tokens []Token
}

// New creates a Sequence from tokens. The token slice is copied.
// An empty id is replaced by a random UUID.
func New(id string, tokens []Token) *Sequence {
	if id == "" {
		id = uuid.New().String()
	}
	return &Sequence{
		id:     id,
		tokens: append([]Token(nil), tokens...),
	}
}

// FromObservations builds a Sequence from ordered (is_gap, magnitude) observations
func FromObservations(id string, obs []Observation) *Sequence {
	s := New(id, nil)
	s.tokens = make([]Token, 0, len(obs))
	for _, o := range obs {
		if o.IsGap {
			s.Append(Gap(o.Magnitude))
		} else {
			s.Append(Size(o.Magnitude))
		}
	}
	return s
}

// Parse builds a Sequence from whitespace separated tokens, e.g. "S01 G05 S02"
func Parse(id, text string) (*Sequence, error) {
	fields := strings.Fields(text)
	s := New(id, nil)
	s.tokens = make([]Token, 0, len(fields))
	for i, f := range fields {
		t, err := ParseToken(f)
		if err != nil {
			return nil, fmt.Errorf("token %d of sequence %s: %w", i, s.id, err)
		}
		s.tokens = append(s.tokens, t)
	}
	return s, nil
}

// ID returns the trace identifier
func (s *Sequence) ID() string {
	return s.id
}

// Len returns the number of tokens
func (s *Sequence) Len() int {
	return len(s.tokens)
}

// At returns the token at index i
func (s *Sequence) At(i int) Token {
	return s.tokens[i]
}

// Append adds a token to the end of the sequence
func (s *Sequence) Append(t Token) {
	s.tokens = append(s.tokens, t)
}

// Tokens returns a copy of the tokens
func (s *Sequence) Tokens() []Token {
	return append([]Token(nil), s.tokens...)
}

// Elements returns the backing token slice. Callers must not modify it.
func (s *Sequence) Elements() []Token {
	return s.tokens
}

// Complexity is the number of size tokens, i.e. the number of observed messages
func (s *Sequence) Complexity() int {
	n := 0
	for _, t := range s.tokens {
		if !t.IsGap() {
			n++
		}
	}
	return n
}

// Equal reports whether both sequences hold the same tokens in the same order
func (s *Sequence) Equal(other *Sequence) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	for i := range s.tokens {
		if s.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

type sequenceJSON struct {
	ID     string  `json:"id"`
	Tokens []Token `json:"tokens"`
}

// MarshalJSON implements json.Marshaler interface
func (s *Sequence) MarshalJSON() ([]byte, error) {
	tokens := s.tokens
	if tokens == nil {
		tokens = []Token{}
	}
	return json.Marshal(sequenceJSON{ID: s.id, Tokens: tokens})
}

// UnmarshalJSON implements json.Unmarshaler interface
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var temp sequenceJSON
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	s.id = temp.ID
	if s.id == "" {
		s.id = uuid.New().String()
	}
	s.tokens = temp.Tokens
	return nil
}
