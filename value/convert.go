package value

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05.999999999"
)

var timeLayouts = []string{timeLayout, "15:04:05.999999999", "15:04"}

var timestampLayouts = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	dateLayout,
}

// Convert maps one backend-native value onto the unified variant the
// column was described with. The mapping is total: every native value
// either converts cleanly or the conversion fails with an explicit
// error, never with silent truncation.
func Convert(native any, want Type) (Value, error) {
	if native == nil {
		return Null(), nil
	}
	switch want {
	case TypeUnknown:
		return infer(native)
	case TypeInt:
		return toInt(native)
	case TypeFloat:
		return toFloat(native)
	case TypeDecimal:
		return toDecimal(native)
	case TypeText:
		return toText(native)
	case TypeBinary:
		return toBinary(native)
	case TypeBool:
		return toBool(native)
	case TypeDate:
		return toDate(native)
	case TypeTime:
		return toTime(native)
	case TypeTimestamp:
		return toTimestamp(native)
	default:
		return Null(), fmt.Errorf("cannot convert %T into %s", native, want)
	}
}

// infer maps a native value whose column type the backend did not report.
func infer(native any) (Value, error) {
	switch n := native.(type) {
	case int64:
		return Int(n), nil
	case float64:
		return Float(n), nil
	case bool:
		return Bool(n), nil
	case string:
		return Text(n), nil
	case []byte:
		return Binary(append([]byte(nil), n...)), nil
	case time.Time:
		return Timestamp(n), nil
	default:
		return Null(), fmt.Errorf("no unified representation for native %T", native)
	}
}

func toInt(native any) (Value, error) {
	switch n := native.(type) {
	case int64:
		return Int(n), nil
	case int32:
		return Int(int64(n)), nil
	case int16:
		return Int(int64(n)), nil
	case int:
		return Int(int64(n)), nil
	case uint64:
		if n > math.MaxInt64 {
			return Null(), fmt.Errorf("integer %d out of int64 range", n)
		}
		return Int(int64(n)), nil
	case bool:
		if n {
			return Int(1), nil
		}
		return Int(0), nil
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	default:
		return Null(), fmt.Errorf("cannot convert %T into int", native)
	}
}

func parseInt(s string) (Value, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Null(), fmt.Errorf("invalid integer %q", s)
	}
	return Int(i), nil
}

func toFloat(native any) (Value, error) {
	switch n := native.(type) {
	case float64:
		return Float(n), nil
	case float32:
		return Float(float64(n)), nil
	case int64:
		return Float(float64(n)), nil
	case []byte:
		return parseFloat(string(n))
	case string:
		return parseFloat(n)
	default:
		return Null(), fmt.Errorf("cannot convert %T into float", native)
	}
}

func parseFloat(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), fmt.Errorf("invalid float %q", s)
	}
	return Float(f), nil
}

func toDecimal(native any) (Value, error) {
	switch n := native.(type) {
	case []byte:
		return parseDecimal(string(n))
	case string:
		return parseDecimal(n)
	case int64:
		return Decimal(decimal.NewFromInt(n)), nil
	case float64:
		// SQLite stores NUMERIC affinity as float; this path is lossy
		// for values beyond 2^53 and documented as such per backend.
		return Decimal(decimal.NewFromFloat(n)), nil
	default:
		return Null(), fmt.Errorf("cannot convert %T into decimal", native)
	}
}

func parseDecimal(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Null(), fmt.Errorf("invalid decimal %q", s)
	}
	return Decimal(d), nil
}

func toText(native any) (Value, error) {
	switch n := native.(type) {
	case string:
		return Text(n), nil
	case []byte:
		return Text(string(n)), nil
	default:
		return Null(), fmt.Errorf("cannot convert %T into text", native)
	}
}

func toBinary(native any) (Value, error) {
	switch n := native.(type) {
	case []byte:
		return Binary(append([]byte(nil), n...)), nil
	case string:
		return Binary([]byte(n)), nil
	default:
		return Null(), fmt.Errorf("cannot convert %T into binary", native)
	}
}

func toBool(native any) (Value, error) {
	switch n := native.(type) {
	case bool:
		return Bool(n), nil
	case int64:
		return Bool(n != 0), nil
	case []byte:
		return parseBool(string(n))
	case string:
		return parseBool(n)
	default:
		return Null(), fmt.Errorf("cannot convert %T into bool", native)
	}
}

func parseBool(s string) (Value, error) {
	switch s {
	case "1", "t", "true", "TRUE":
		return Bool(true), nil
	case "0", "f", "false", "FALSE":
		return Bool(false), nil
	}
	return Null(), fmt.Errorf("invalid boolean %q", s)
}

func toDate(native any) (Value, error) {
	switch n := native.(type) {
	case time.Time:
		return Date(n), nil
	case []byte:
		return parseDate(string(n))
	case string:
		return parseDate(n)
	default:
		return Null(), fmt.Errorf("cannot convert %T into date", native)
	}
}

func parseDate(s string) (Value, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Null(), fmt.Errorf("invalid date %q", s)
	}
	return Date(t), nil
}

func toTime(native any) (Value, error) {
	switch n := native.(type) {
	case time.Time:
		return TimeOfDay(n), nil
	case []byte:
		return parseTimeOfDay(string(n))
	case string:
		return parseTimeOfDay(n)
	default:
		return Null(), fmt.Errorf("cannot convert %T into time", native)
	}
}

func parseTimeOfDay(s string) (Value, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t), nil
		}
	}
	return Null(), fmt.Errorf("invalid time %q", s)
}

func toTimestamp(native any) (Value, error) {
	switch n := native.(type) {
	case time.Time:
		return Timestamp(n), nil
	case []byte:
		return parseTimestamp(string(n))
	case string:
		return parseTimestamp(n)
	default:
		return Null(), fmt.Errorf("cannot convert %T into timestamp", native)
	}
}

func parseTimestamp(s string) (Value, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp(t), nil
		}
	}
	return Null(), fmt.Errorf("invalid timestamp %q", s)
}

// BindArg converts one caller-supplied parameter into the representation
// the drivers accept. Callers may pass plain Go values or Values.
func BindArg(arg any) (any, error) {
	switch a := arg.(type) {
	case nil:
		return nil, nil
	case Value:
		return a.Arg(), nil
	case bool, int64, float64, string, []byte, time.Time:
		return a, nil
	case int:
		return int64(a), nil
	case int8:
		return int64(a), nil
	case int16:
		return int64(a), nil
	case int32:
		return int64(a), nil
	case uint:
		if uint64(a) > math.MaxInt64 {
			return nil, fmt.Errorf("parameter %d overflows int64", a)
		}
		return int64(a), nil
	case uint8:
		return int64(a), nil
	case uint16:
		return int64(a), nil
	case uint32:
		return int64(a), nil
	case uint64:
		if a > math.MaxInt64 {
			return nil, fmt.Errorf("parameter %d overflows int64", a)
		}
		return int64(a), nil
	case float32:
		return float64(a), nil
	case decimal.Decimal:
		return a.String(), nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %T", arg)
	}
}
