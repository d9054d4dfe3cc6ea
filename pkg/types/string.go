package types

import (
	"encoding/binary"
	"io"
	"strings"
	"unicode/utf8"

	"qexec/pkg/primitives"
)

// StringMaxSize is the fixed payload width of a string field in bytes.
const StringMaxSize = 64

// StringField is a bounded-length string. Values longer than
// StringMaxSize bytes are truncated on construction at a rune boundary.
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	if len(value) > StringMaxSize {
		cut := StringMaxSize
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return &StringField{Value: value}
}

func (s *StringField) Type() Type { return StringType }

func (s *StringField) Compare(other Field) (int, error) {
	o, ok := other.(*StringField)
	if !ok {
		return 0, errMismatch(s, other)
	}
	return strings.Compare(s.Value, o.Value), nil
}

// Evaluate supports LIKE as a substring match in addition to the ordering operators.
func (s *StringField) Evaluate(op primitives.Predicate, other Field) (bool, error) {
	if op == primitives.Like {
		o, ok := other.(*StringField)
		if !ok {
			return false, errMismatch(s, other)
		}
		return strings.Contains(s.Value, strings.Trim(o.Value, "%")), nil
	}
	c, err := s.Compare(other)
	if err != nil {
		return false, err
	}
	return evaluate(c, op)
}

func (s *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && o.Value == s.Value
}

// Serialize writes a 4-byte big-endian length, the bytes, and zero padding
// up to StringMaxSize.
func (s *StringField) Serialize(w io.Writer) error {
	var buf [4 + StringMaxSize]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(len(s.Value)))
	copy(buf[4:], s.Value)
	_, err := w.Write(buf[:])
	return err
}

func (s *StringField) String() string {
	return s.Value
}
