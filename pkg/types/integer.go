package types

import (
	"cmp"
	"encoding/binary"
	"io"
	"strconv"

	"qexec/pkg/primitives"
)

// IntField is a 64-bit signed integer value.
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Type() Type { return IntType }

func (f *IntField) Compare(other Field) (int, error) {
	switch o := other.(type) {
	case *IntField:
		return cmp.Compare(f.Value, o.Value), nil
	case *FloatField:
		return compareFloat(float64(f.Value), o.Value), nil
	default:
		return 0, errMismatch(f, other)
	}
}

func (f *IntField) Evaluate(op primitives.Predicate, other Field) (bool, error) {
	c, err := f.Compare(other)
	if err != nil {
		return false, err
	}
	return evaluate(c, op)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	return ok && o.Value == f.Value
}

// Serialize writes the value as a big-endian uint64.
func (f *IntField) Serialize(w io.Writer) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(f.Value))
	_, err := w.Write(buf[:])
	return err
}

func (f *IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}
