package ir

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// Value is a sealed interface representing a literal that can appear in
// command text. Only the types in this file implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null is the null literal.
type Null struct{}

func (Null) irValue() {}

// String is an Edm.String literal.
type String string

func (String) irValue() {}

// Int is an integral literal (Edm.Byte through Edm.Int64).
type Int int64

func (Int) irValue() {}

// Bool is an Edm.Boolean literal.
type Bool bool

func (Bool) irValue() {}

// Double is an Edm.Double literal.
type Double float64

func (Double) irValue() {}

// Single is an Edm.Single literal.
type Single float32

func (Single) irValue() {}

// Decimal is an Edm.Decimal literal. It keeps the exact digits the caller
// supplied; there is no binary floating point round trip.
type Decimal struct {
	d apd.Decimal
}

func (Decimal) irValue() {}

// DateTime is an Edm.DateTimeOffset literal.
type DateTime time.Time

func (DateTime) irValue() {}

// Date is an Edm.Date literal (no time, no zone).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) irValue() {}

// TimeOfDay is an Edm.TimeOfDay literal expressed as the offset from
// midnight.
type TimeOfDay time.Duration

func (TimeOfDay) irValue() {}

// Duration is an Edm.Duration literal.
type Duration time.Duration

func (Duration) irValue() {}

// GUID is an Edm.Guid literal.
type GUID uuid.UUID

func (GUID) irValue() {}

// Binary is an Edm.Binary literal.
type Binary []byte

func (Binary) irValue() {}

// Enum is an enumeration member literal, e.g. Enum{Type: "NS.Color", Member: "Red"}.
type Enum struct {
	Type   string
	Member string
}

func (Enum) irValue() {}

// NewDecimal parses s as an exact decimal.
func NewDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{d: *d}, nil
}

// MustDecimal is like NewDecimal but panics on error.
// Use only in tests or with constant input.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromApd copies an apd.Decimal into a Decimal literal.
func DecimalFromApd(d *apd.Decimal) Decimal {
	var out Decimal
	out.d.Set(d)
	return out
}

// Text renders the decimal in plain (non-exponent) notation.
func (d Decimal) Text() string {
	return d.d.Text('f')
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// UUID returns the GUID as a uuid.UUID.
func (g GUID) UUID() uuid.UUID {
	return uuid.UUID(g)
}

// FromGo converts a native Go value to a Value.
//
// Supported: nil, Value, string, bool, all integer kinds, float32, float64,
// time.Time, time.Duration, uuid.UUID, []byte, apd.Decimal and *apd.Decimal.
// Named types whose underlying kind is one of the above (e.g. `type Status
// string`) are converted by kind. Anything else fails with an
// UNSUPPORTED_EXPRESSION error naming the Go type.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint64:
		return fromUint(val)
	case float32:
		return Single(val), nil
	case float64:
		return Double(val), nil
	case time.Time:
		return DateTime(val), nil
	case time.Duration:
		return Duration(val), nil
	case uuid.UUID:
		return GUID(val), nil
	case []byte:
		return Binary(val), nil
	case apd.Decimal:
		return DecimalFromApd(&val), nil
	case *apd.Decimal:
		if val == nil {
			return Null{}, nil
		}
		return DecimalFromApd(val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUint(rv.Uint())
	case reflect.Float32:
		return Single(float32(rv.Float())), nil
	case reflect.Float64:
		return Double(rv.Float()), nil
	}

	return nil, odataerr.Unsupported(fmt.Sprintf("%T", v), "values of type %T cannot be used as literals", v)
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, odataerr.Unsupported("uint64", "integer %d overflows Edm.Int64", u)
	}
	return Int(int64(u)), nil
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromGo(v any) Value {
	val, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}

// KindName returns a short name for the value's kind, used in messages.
func KindName(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Double:
		return "double"
	case Single:
		return "single"
	case Decimal:
		return "decimal"
	case DateTime:
		return "datetime"
	case Date:
		return "date"
	case TimeOfDay:
		return "timeofday"
	case Duration:
		return "duration"
	case GUID:
		return "guid"
	case Binary:
		return "binary"
	case Enum:
		return "enum"
	default:
		return fmt.Sprintf("%T", v)
	}
}
