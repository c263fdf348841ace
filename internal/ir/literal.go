package ir

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// Protocol selects the literal dialect.
type Protocol int

const (
	// V4 renders OData 4.0 literals. This is the default.
	V4 Protocol = iota
	// V3 renders OData 3.0 literals (type-prefixed and suffixed forms).
	V3
)

// String returns "4.0" or "3.0".
func (p Protocol) String() string {
	if p == V3 {
		return "3.0"
	}
	return "4.0"
}

// ParseProtocol parses "3", "3.0", "v3", "4", "4.0", "v4" (empty means V4).
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "4", "4.0", "v4":
		return V4, nil
	case "3", "3.0", "v3":
		return V3, nil
	}
	return V4, fmt.Errorf("unknown protocol version %q", s)
}

// Edm primitive type names used for type-directed rendering.
const (
	EdmString         = "Edm.String"
	EdmBoolean        = "Edm.Boolean"
	EdmByte           = "Edm.Byte"
	EdmSByte          = "Edm.SByte"
	EdmInt16          = "Edm.Int16"
	EdmInt32          = "Edm.Int32"
	EdmInt64          = "Edm.Int64"
	EdmSingle         = "Edm.Single"
	EdmDouble         = "Edm.Double"
	EdmDecimal        = "Edm.Decimal"
	EdmGuid           = "Edm.Guid"
	EdmDateTimeOffset = "Edm.DateTimeOffset"
	EdmDateTime       = "Edm.DateTime" // 3.0 only
	EdmDate           = "Edm.Date"
	EdmTimeOfDay      = "Edm.TimeOfDay"
	EdmDuration       = "Edm.Duration"
	EdmTime           = "Edm.Time" // 3.0 only
	EdmBinary         = "Edm.Binary"
)

// Format renders v as a literal.
//
// Rendering is type-directed: when declared names an Edm primitive type the
// value is coerced to it (a String holding a GUID declared as Edm.Guid
// renders as a GUID). When declared is empty the value's own kind decides.
// A declared type outside the Edm namespace is treated as an enumeration
// type for String and Enum values.
func Format(v Value, declared string, proto Protocol) (string, error) {
	if v == nil {
		return "", odataerr.Unsupported("nil", "literal has no value")
	}
	if _, ok := v.(Null); ok {
		return "null", nil
	}
	if declared == "" {
		return formatKind(v, proto)
	}

	switch declared {
	case EdmString:
		switch val := v.(type) {
		case String:
			return quote(string(val)), nil
		case GUID:
			return quote(val.UUID().String()), nil
		case Enum:
			return quote(val.Member), nil
		}
	case EdmBoolean:
		switch val := v.(type) {
		case Bool:
			return strconv.FormatBool(bool(val)), nil
		case String:
			if val == "true" || val == "false" {
				return string(val), nil
			}
		}
	case EdmByte, EdmSByte, EdmInt16, EdmInt32, EdmInt64:
		n, ok := asInt(v)
		if ok {
			s := strconv.FormatInt(n, 10)
			if declared == EdmInt64 && proto == V3 {
				s += "L"
			}
			return s, nil
		}
	case EdmDouble:
		if f, ok := asFloat(v); ok {
			return suffix(formatFloat(f, 64), "d", proto), nil
		}
	case EdmSingle:
		if f, ok := asFloat(v); ok {
			return suffix(formatFloat(f, 32), "f", proto), nil
		}
	case EdmDecimal:
		if s, ok := asDecimalText(v); ok {
			return suffix(s, "M", proto), nil
		}
	case EdmGuid:
		if g, ok := asGUID(v); ok {
			return formatGUID(g, proto), nil
		}
	case EdmDateTimeOffset:
		if t, ok := asTime(v); ok {
			return formatDateTimeOffset(t, proto), nil
		}
	case EdmDateTime:
		if t, ok := asTime(v); ok {
			if proto == V3 {
				return "datetime'" + t.UTC().Format("2006-01-02T15:04:05.999999999") + "'", nil
			}
			return formatDateTimeOffset(t, proto), nil
		}
	case EdmDate:
		if d, ok := asDate(v); ok {
			return formatDate(d, proto), nil
		}
	case EdmTimeOfDay:
		if tod, ok := asTimeOfDay(v); ok {
			return formatTimeOfDay(tod, proto)
		}
	case EdmDuration, EdmTime:
		if d, ok := v.(Duration); ok {
			return formatDuration(time.Duration(d), proto), nil
		}
		if tod, ok := v.(TimeOfDay); ok && declared == EdmTime {
			return formatDuration(time.Duration(tod), proto), nil
		}
	case EdmBinary:
		if b, ok := v.(Binary); ok {
			return formatBinary(b, proto), nil
		}
	default:
		if !strings.HasPrefix(declared, "Edm.") {
			switch val := v.(type) {
			case String:
				return formatEnum(Enum{Type: declared, Member: string(val)}, proto)
			case Enum:
				if val.Type == "" {
					val.Type = declared
				}
				return formatEnum(val, proto)
			}
		}
		// Unknown Edm type: fall back to the value's own kind.
		return formatKind(v, proto)
	}

	return "", odataerr.Unsupported(declared,
		"cannot render %s value as %s", KindName(v), declared)
}

// MustFormat is like Format but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFormat(v Value, declared string, proto Protocol) string {
	s, err := Format(v, declared, proto)
	if err != nil {
		panic(err)
	}
	return s
}

// formatKind renders a value by its own kind.
func formatKind(v Value, proto Protocol) (string, error) {
	switch val := v.(type) {
	case Null:
		return "null", nil
	case String:
		return quote(string(val)), nil
	case Int:
		return strconv.FormatInt(int64(val), 10), nil
	case Bool:
		return strconv.FormatBool(bool(val)), nil
	case Double:
		return suffix(formatFloat(float64(val), 64), "d", proto), nil
	case Single:
		return suffix(formatFloat(float64(val), 32), "f", proto), nil
	case Decimal:
		return suffix(val.Text(), "M", proto), nil
	case DateTime:
		return formatDateTimeOffset(time.Time(val), proto), nil
	case Date:
		return formatDate(val, proto), nil
	case TimeOfDay:
		return formatTimeOfDay(val, proto)
	case Duration:
		return formatDuration(time.Duration(val), proto), nil
	case GUID:
		return formatGUID(val.UUID(), proto), nil
	case Binary:
		return formatBinary(val, proto), nil
	case Enum:
		return formatEnum(val, proto)
	default:
		return "", odataerr.Unsupported(fmt.Sprintf("%T", v), "unsupported literal type %T", v)
	}
}

// quote wraps s in single quotes, doubling embedded quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func suffix(s, sfx string, proto Protocol) string {
	if proto != V3 {
		return s
	}
	switch s {
	case "INF", "-INF", "NaN":
		return s
	}
	return s + sfx
}

// formatFloat renders the shortest text that round-trips at the given bit
// size. Plain notation is used between 1e-6 and 1e21, exponent notation
// outside that range.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'E', -1, bits)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

func formatGUID(g uuid.UUID, proto Protocol) string {
	s := strings.ToLower(g.String())
	if proto == V3 {
		return "guid'" + s + "'"
	}
	return s
}

// formatDateTimeOffset renders t in UTC with up to nanosecond precision and
// trailing fractional zeros trimmed.
func formatDateTimeOffset(t time.Time, proto Protocol) string {
	s := t.UTC().Format(time.RFC3339Nano)
	if proto == V3 {
		return "datetimeoffset'" + s + "'"
	}
	return s
}

func formatDate(d Date, proto Protocol) string {
	if proto == V3 {
		return "datetime'" + d.String() + "T00:00:00'"
	}
	return d.String()
}

// formatTimeOfDay renders a time of day in [00:00:00, 24:00:00).
func formatTimeOfDay(tod TimeOfDay, proto Protocol) (string, error) {
	if tod < 0 || time.Duration(tod) >= 24*time.Hour {
		return "", odataerr.Unsupported(EdmTimeOfDay,
			"time of day %s is outside 00:00:00 to 24:00:00", time.Duration(tod))
	}
	if proto == V3 {
		return formatDuration(time.Duration(tod), proto), nil
	}
	d := time.Duration(tod)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	out := fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	if d > 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%09d", int64(d)), "0")
	}
	return out, nil
}

// formatDuration renders an ISO 8601 day-time duration.
func formatDuration(d time.Duration, proto Protocol) string {
	prefix := "duration"
	if proto == V3 {
		prefix = "time"
	}
	return prefix + "'" + isoDuration(d) + "'"
}

func isoDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if d == 0 {
		if days == 0 {
			b.WriteString("T0S")
		}
		return b.String()
	}

	b.WriteByte('T')
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if d > 0 {
		s := d / time.Second
		frac := d - s*time.Second
		fmt.Fprintf(&b, "%d", s)
		if frac > 0 {
			b.WriteString("." + strings.TrimRight(fmt.Sprintf("%09d", int64(frac)), "0"))
		}
		b.WriteByte('S')
	}
	return b.String()
}

func formatBinary(b Binary, proto Protocol) string {
	if proto == V3 {
		return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
	}
	return "binary'" + base64.RawURLEncoding.EncodeToString(b) + "'"
}

func formatEnum(e Enum, proto Protocol) (string, error) {
	if proto == V3 {
		return "", odataerr.Unsupported("enum", "enumeration literals require protocol 4.0")
	}
	if e.Type == "" {
		return "", odataerr.Unsupported("enum", "enumeration member %q has no type name", e.Member)
	}
	return e.Type + quote(e.Member), nil
}

// Coercions used by type-directed rendering.

func asInt(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int:
		return int64(val), true
	case String:
		n, err := strconv.ParseInt(string(val), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func asFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Double:
		return float64(val), true
	case Single:
		return float64(val), true
	case Int:
		return float64(val), true
	case Decimal:
		f, err := val.d.Float64()
		return f, err == nil
	case String:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	}
	return 0, false
}

func asDecimalText(v Value) (string, bool) {
	switch val := v.(type) {
	case Decimal:
		return val.Text(), true
	case Int:
		return strconv.FormatInt(int64(val), 10), true
	case Double:
		return plainFloat(float64(val), 64)
	case Single:
		return plainFloat(float64(val), 32)
	case String:
		d, err := NewDecimal(string(val))
		if err != nil {
			return "", false
		}
		return d.Text(), true
	}
	return "", false
}

// plainFloat renders f without an exponent. NaN and infinities have no
// decimal form.
func plainFloat(f float64, bits int) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, bits), true
}

func asGUID(v Value) (uuid.UUID, bool) {
	switch val := v.(type) {
	case GUID:
		return val.UUID(), true
	case String:
		g, err := uuid.Parse(string(val))
		return g, err == nil
	}
	return uuid.UUID{}, false
}

func asTime(v Value) (time.Time, bool) {
	switch val := v.(type) {
	case DateTime:
		return time.Time(val), true
	case Date:
		return time.Date(val.Year, val.Month, val.Day, 0, 0, 0, 0, time.UTC), true
	case String:
		t, err := time.Parse(time.RFC3339Nano, string(val))
		return t, err == nil
	}
	return time.Time{}, false
}

func asDate(v Value) (Date, bool) {
	switch val := v.(type) {
	case Date:
		return val, true
	case DateTime:
		return DateOf(time.Time(val).UTC()), true
	case String:
		t, err := time.Parse("2006-01-02", string(val))
		if err != nil {
			return Date{}, false
		}
		return DateOf(t), true
	}
	return Date{}, false
}

func asTimeOfDay(v Value) (TimeOfDay, bool) {
	switch val := v.(type) {
	case TimeOfDay:
		return val, true
	case DateTime:
		t := time.Time(val).UTC()
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return TimeOfDay(t.Sub(midnight)), true
	case String:
		t, err := time.Parse("15:04:05.999999999", string(val))
		if err != nil {
			return 0, false
		}
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return TimeOfDay(t.Sub(midnight)), true
	}
	return 0, false
}
