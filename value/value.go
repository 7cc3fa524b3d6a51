package value

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type enumerates the unified value variants every backend maps into.
type Type int

const (
	// TypeUnknown marks a column whose type the backend did not report
	// (SQLite expressions, for example). Values in such columns are
	// inferred from the native representation row by row.
	TypeUnknown Type = iota
	TypeNull
	TypeInt
	TypeFloat
	TypeDecimal
	TypeText
	TypeBinary
	TypeBool
	TypeDate
	TypeTime
	TypeTimestamp
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeText:
		return "text"
	case TypeBinary:
		return "binary"
	case TypeBool:
		return "bool"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Value is the tagged union holding one backend-independent value.
// The zero Value is Null.
type Value struct {
	typ Type
	i   int64
	f   float64
	d   decimal.Decimal
	s   string
	b   []byte
	t   time.Time
	o   bool
}

// Row is one result row in unified representation.
type Row []Value

func Null() Value                    { return Value{typ: TypeNull} }
func Int(v int64) Value              { return Value{typ: TypeInt, i: v} }
func Float(v float64) Value          { return Value{typ: TypeFloat, f: v} }
func Decimal(v decimal.Decimal) Value { return Value{typ: TypeDecimal, d: v} }
func Text(v string) Value            { return Value{typ: TypeText, s: v} }
func Binary(v []byte) Value          { return Value{typ: TypeBinary, b: v} }
func Bool(v bool) Value              { return Value{typ: TypeBool, o: v} }

// Date keeps only the calendar day of v, in UTC.
func Date(v time.Time) Value {
	y, m, d := v.Date()
	return Value{typ: TypeDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// TimeOfDay keeps only the clock of v, on the zero day in UTC.
func TimeOfDay(v time.Time) Value {
	return Value{typ: TypeTime, t: time.Date(1, 1, 1, v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)}
}

func Timestamp(v time.Time) Value { return Value{typ: TypeTimestamp, t: v} }

func (v Value) Type() Type   { return v.typ }
func (v Value) IsNull() bool { return v.typ == TypeNull || v.typ == TypeUnknown }

func (v Value) Int() (int64, bool)               { return v.i, v.typ == TypeInt }
func (v Value) Float() (float64, bool)           { return v.f, v.typ == TypeFloat }
func (v Value) Decimal() (decimal.Decimal, bool) { return v.d, v.typ == TypeDecimal }
func (v Value) Text() (string, bool)             { return v.s, v.typ == TypeText }
func (v Value) Binary() ([]byte, bool)           { return v.b, v.typ == TypeBinary }
func (v Value) Bool() (bool, bool)               { return v.o, v.typ == TypeBool }

// Time returns the temporal payload of Date, Time and Timestamp values.
func (v Value) Time() (time.Time, bool) {
	switch v.typ {
	case TypeDate, TypeTime, TypeTimestamp:
		return v.t, true
	}
	return time.Time{}, false
}

// Arg converts v into the representation the database/sql drivers accept
// as a bind parameter.
func (v Value) Arg() any {
	switch v.typ {
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeDecimal:
		return v.d.String()
	case TypeText:
		return v.s
	case TypeBinary:
		return v.b
	case TypeBool:
		return v.o
	case TypeDate:
		return v.t.Format(dateLayout)
	case TypeTime:
		return v.t.Format(timeLayout)
	case TypeTimestamp:
		return v.t
	default:
		return nil
	}
}

// Clone returns a copy of v sharing no mutable state with the original.
// Only Binary carries a mutable payload.
func (v Value) Clone() Value {
	if v.typ == TypeBinary {
		v.b = append([]byte(nil), v.b...)
	}
	return v
}

// Clone deep-copies the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for i, v := range r {
		out[i] = v.Clone()
	}
	return out
}

// Equal reports deep equality of two values, including their variant.
func (v Value) Equal(w Value) bool {
	if v.typ != w.typ {
		return false
	}
	switch v.typ {
	case TypeInt:
		return v.i == w.i
	case TypeFloat:
		return v.f == w.f
	case TypeDecimal:
		return v.d.Equal(w.d)
	case TypeText:
		return v.s == w.s
	case TypeBinary:
		return bytes.Equal(v.b, w.b)
	case TypeBool:
		return v.o == w.o
	case TypeDate, TypeTime, TypeTimestamp:
		return v.t.Equal(w.t)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeInt:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	case TypeDecimal:
		return v.d.String()
	case TypeText:
		return v.s
	case TypeBinary:
		return fmt.Sprintf("%d bytes", len(v.b))
	case TypeBool:
		return fmt.Sprintf("%t", v.o)
	case TypeDate:
		return v.t.Format(dateLayout)
	case TypeTime:
		return v.t.Format(timeLayout)
	case TypeTimestamp:
		return v.t.Format(timestampLayout)
	default:
		return "NULL"
	}
}
