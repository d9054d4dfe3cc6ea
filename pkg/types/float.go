package types

import (
	"cmp"
	"encoding/binary"
	"io"
	"math"
	"strconv"

	"qexec/pkg/primitives"
)

// FloatField is a 64-bit IEEE-754 value.
type FloatField struct {
	Value float64
}

func NewFloatField(value float64) *FloatField {
	return &FloatField{Value: value}
}

func (f *FloatField) Type() Type { return FloatType }

func (f *FloatField) Compare(other Field) (int, error) {
	switch o := other.(type) {
	case *FloatField:
		return compareFloat(f.Value, o.Value), nil
	case *IntField:
		return compareFloat(f.Value, float64(o.Value)), nil
	default:
		return 0, errMismatch(f, other)
	}
}

// compareFloat orders NaN before every other value so sorting stays total.
func compareFloat(a, b float64) int {
	return cmp.Compare(a, b)
}

func (f *FloatField) Evaluate(op primitives.Predicate, other Field) (bool, error) {
	c, err := f.Compare(other)
	if err != nil {
		return false, err
	}
	return evaluate(c, op)
}

func (f *FloatField) Equals(other Field) bool {
	o, ok := other.(*FloatField)
	return ok && compareFloat(f.Value, o.Value) == 0
}

func (f *FloatField) Serialize(w io.Writer) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(f.Value))
	_, err := w.Write(buf[:])
	return err
}

func (f *FloatField) String() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}
