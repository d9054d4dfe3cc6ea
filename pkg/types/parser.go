package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseField reads one serialized value of the given type from r.
// A short read surfaces as io.ErrUnexpectedEOF; io.EOF is returned only
// when r is exhausted before the first byte.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	switch fieldType {
	case IntType:
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return NewIntField(int64(v)), nil

	case FloatType:
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return NewFloatField(math.Float64frombits(v)), nil

	case StringType:
		return parseStringField(r)

	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func parseStringField(r io.Reader) (*StringField, error) {
	var buf [4 + StringMaxSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}

	length := int(binary.BigEndian.Uint32(buf[:4]))
	if length > StringMaxSize {
		return nil, fmt.Errorf("string length %d exceeds maximum %d", length, StringMaxSize)
	}
	return &StringField{Value: string(buf[4 : 4+length])}, nil
}

// ParseLiteral converts text (a CSV cell or SQL literal) into a field of type t.
func ParseLiteral(t Type, text string) (Field, error) {
	switch t {
	case IntType:
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int literal %q: %w", text, err)
		}
		return NewIntField(v), nil

	case FloatType:
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q: %w", text, err)
		}
		return NewFloatField(v), nil

	case StringType:
		return NewStringField(text), nil

	default:
		return nil, fmt.Errorf("unsupported field type: %v", t)
	}
}
