package featurepath

import (
	"strconv"

	"github.com/julielab/jcore/errors"
)

// FormatValue renders a primitive value the way replacement tables key it.
// Nil and non-primitive values render as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return ""
	}
}

// ParseValue converts s to the Go representation of kind.
func ParseValue(kind Kind, s string) (any, error) {
	var (
		v   any
		err error
	)
	switch kind {
	case KindString:
		return s, nil
	case KindInteger:
		var n int64
		n, err = strconv.ParseInt(s, 10, 32)
		v = int32(n)
	case KindBoolean:
		v, err = strconv.ParseBool(s)
	case KindFloat:
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		v = float32(f)
	case KindDouble:
		v, err = strconv.ParseFloat(s, 64)
	case KindByte:
		var n int64
		n, err = strconv.ParseInt(s, 10, 8)
		v = int8(n)
	case KindLong:
		v, err = strconv.ParseInt(s, 10, 64)
	case KindShort:
		var n int64
		n, err = strconv.ParseInt(s, 10, 16)
		v = int16(n)
	default:
		return nil, errors.Mark(errors.Newf("cannot convert %q to %s", s, kind), errors.ErrUnsupportedType)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot convert %q to %s", s, kind)
	}
	return v, nil
}

// CheckValue reports whether v is a valid Go representation of kind.
func CheckValue(kind Kind, v any) bool {
	switch v.(type) {
	case nil:
		return kind == KindString
	case string:
		return kind == KindString
	case int32:
		return kind == KindInteger
	case bool:
		return kind == KindBoolean
	case float32:
		return kind == KindFloat
	case float64:
		return kind == KindDouble
	case int8:
		return kind == KindByte
	case int64:
		return kind == KindLong
	case int16:
		return kind == KindShort
	default:
		return false
	}
}
