package value

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// envelope is the wire form used when result rows are serialized, e.g.
// by the cache middlewares.
type envelope struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	env := envelope{T: v.typ.String()}
	var payload any
	switch v.typ {
	case TypeNull, TypeUnknown:
		return json.Marshal(env)
	case TypeInt:
		payload = v.i
	case TypeFloat:
		payload = v.f
	case TypeDecimal:
		payload = v.d.String()
	case TypeText:
		payload = v.s
	case TypeBinary:
		payload = v.b
	case TypeBool:
		payload = v.o
	case TypeDate:
		payload = v.t.Format(dateLayout)
	case TypeTime:
		payload = v.t.Format("15:04:05.999999999")
	case TypeTimestamp:
		payload = v.t.Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	env.V = raw
	return json.Marshal(env)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.T {
	case "null", "unknown":
		*v = Null()
		return nil
	case "int":
		var i int64
		if err := json.Unmarshal(env.V, &i); err != nil {
			return err
		}
		*v = Int(i)
	case "float":
		var f float64
		if err := json.Unmarshal(env.V, &f); err != nil {
			return err
		}
		*v = Float(f)
	case "decimal":
		var s string
		if err := json.Unmarshal(env.V, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		*v = Decimal(d)
	case "text":
		var s string
		if err := json.Unmarshal(env.V, &s); err != nil {
			return err
		}
		*v = Text(s)
	case "binary":
		var b []byte
		if err := json.Unmarshal(env.V, &b); err != nil {
			return err
		}
		*v = Binary(b)
	case "bool":
		var b bool
		if err := json.Unmarshal(env.V, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case "date", "time", "timestamp":
		var s string
		if err := json.Unmarshal(env.V, &s); err != nil {
			return err
		}
		var (
			parsed Value
			err    error
		)
		switch env.T {
		case "date":
			parsed, err = parseDate(s)
		case "time":
			parsed, err = parseTimeOfDay(s)
		default:
			parsed, err = parseTimestamp(s)
		}
		if err != nil {
			return err
		}
		*v = parsed
	default:
		return fmt.Errorf("unknown value variant %q", env.T)
	}
	return nil
}
