package corpus

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/FrenchMajesty/dns-sequence-classifier/label"
	"github.com/FrenchMajesty/dns-sequence-classifier/sequence"
)

// Binary layout in protobuf wire format:
//
//	Corpus   { repeated Group groups = 1; }
//	Group    { string domain = 1; string label = 2; repeated Sequence sequences = 3; }
//	Sequence { string id = 1; repeated uint32 tokens = 2 [packed]; }
//
// A token is encoded as magnitude<<1 | kind.
const (
	fieldCorpusGroup protowire.Number = 1

	fieldGroupDomain   protowire.Number = 1
	fieldGroupLabel    protowire.Number = 2
	fieldGroupSequence protowire.Number = 3

	fieldSequenceID     protowire.Number = 1
	fieldSequenceTokens protowire.Number = 2
)

// MarshalBinary encodes groups in the compact binary layout
func MarshalBinary(groups []Group) []byte {
	var b []byte
	for _, g := range groups {
		b = protowire.AppendTag(b, fieldCorpusGroup, protowire.BytesType)
		b = protowire.AppendBytes(b, appendGroup(nil, g))
	}
	return b
}

// WriteBinary writes groups in the compact binary layout
func WriteBinary(w io.Writer, groups []Group) error {
	if _, err := w.Write(MarshalBinary(groups)); err != nil {
		return fmt.Errorf("failed to write binary corpus: %w", err)
	}
	return nil
}

// ReadBinary reads groups written by WriteBinary
func ReadBinary(r io.Reader) ([]Group, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary corpus: %w", err)
	}
	return UnmarshalBinary(data)
}

// UnmarshalBinary decodes groups from the compact binary layout.
// Unknown fields are skipped.
func UnmarshalBinary(b []byte) ([]Group, error) {
	var groups []Group
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldCorpusGroup || typ != protowire.BytesType {
			return -1, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		g, err := parseGroup(v)
		if err != nil {
			return 0, fmt.Errorf("group %d: %w", len(groups), err)
		}
		groups = append(groups, g)
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode binary corpus: %w", err)
	}
	return groups, nil
}

func appendGroup(b []byte, g Group) []byte {
	b = protowire.AppendTag(b, fieldGroupDomain, protowire.BytesType)
	b = protowire.AppendString(b, g.Domain)
	b = protowire.AppendTag(b, fieldGroupLabel, protowire.BytesType)
	b = protowire.AppendString(b, g.Label.String())
	for _, s := range g.Sequences {
		b = protowire.AppendTag(b, fieldGroupSequence, protowire.BytesType)
		b = protowire.AppendBytes(b, appendSequence(nil, s))
	}
	return b
}

func appendSequence(b []byte, s *sequence.Sequence) []byte {
	b = protowire.AppendTag(b, fieldSequenceID, protowire.BytesType)
	b = protowire.AppendString(b, s.ID())

	var packed []byte
	for _, t := range s.Elements() {
		packed = protowire.AppendVarint(packed, encodeToken(t))
	}
	b = protowire.AppendTag(b, fieldSequenceTokens, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func parseGroup(b []byte) (Group, error) {
	var g Group
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return -1, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}

		switch num {
		case fieldGroupDomain:
			g.Domain = string(v)
		case fieldGroupLabel:
			g.Label = label.Intern(string(v))
		case fieldGroupSequence:
			s, err := parseSequence(v)
			if err != nil {
				return 0, err
			}
			g.Sequences = append(g.Sequences, s)
		}
		return n, nil
	})
	if err != nil {
		return Group{}, err
	}

	g.defaultLabel()
	return g, nil
}

func parseSequence(b []byte) (*sequence.Sequence, error) {
	var (
		id     string
		tokens []sequence.Token
	)
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldSequenceID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			id = v
			return n, nil

		case num == fieldSequenceTokens && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return 0, protowire.ParseError(m)
				}
				t, err := decodeToken(v)
				if err != nil {
					return 0, err
				}
				tokens = append(tokens, t)
				packed = packed[m:]
			}
			return n, nil

		case num == fieldSequenceTokens && typ == protowire.VarintType:
			// unpacked encoding of the same field
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			t, err := decodeToken(v)
			if err != nil {
				return 0, err
			}
			tokens = append(tokens, t)
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}

	if id == "" {
		return nil, fmt.Errorf("sequence without id")
	}
	return sequence.New(id, tokens), nil
}

// consumeFields walks the fields of one message. fn returns the number of
// value bytes it consumed, or -1 to skip the field.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
		}
		b = b[m:]
	}
	return nil
}

func encodeToken(t sequence.Token) uint64 {
	return uint64(t.Magnitude)<<1 | uint64(t.Kind)
}

func decodeToken(v uint64) (sequence.Token, error) {
	m := v >> 1
	if m > 0xFFFF {
		return sequence.Token{}, fmt.Errorf("token magnitude %d overflows 16 bits", m)
	}
	if v&1 == 1 {
		return sequence.Gap(uint16(m)), nil
	}
	return sequence.Size(uint16(m)), nil
}
