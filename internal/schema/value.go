package schema

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/airbend/airbend-ingest/internal/schema/typedesc"
)

// TimestampFormat is the layout of timestamp literals. Timestamps are always written in UTC with microsecond
// precision.
const TimestampFormat = "2006-01-02 15:04:05.000000"

// DateFormat is the layout of date literals.
const DateFormat = "2006-01-02"

// Value is a single typed cell of a row. The zero Value is NULL.
type Value struct {
	kind typedesc.Kind
	text string
}

// Null returns the NULL value.
func Null() Value {
	return Value{kind: typedesc.KindNull}
}

func String(s string) Value {
	return Value{kind: typedesc.KindString, text: s}
}

// OptionalString returns NULL for a nil pointer and the pointed-to string otherwise.
func OptionalString(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

func Binary(s string) Value {
	return Value{kind: typedesc.KindBinary, text: s}
}

func Variant(s string) Value {
	return Value{kind: typedesc.KindVariant, text: s}
}

func Bitmap(s string) Value {
	return Value{kind: typedesc.KindBitmap, text: s}
}

func Geometry(s string) Value {
	return Value{kind: typedesc.KindGeometry, text: s}
}

func Bool(b bool) Value {
	return Value{kind: typedesc.KindBoolean, text: strconv.FormatBool(b)}
}

func Int32(i int32) Value {
	return Value{kind: typedesc.KindInt32, text: strconv.FormatInt(int64(i), 10)}
}

func Int64(i int64) Value {
	return Value{kind: typedesc.KindInt64, text: strconv.FormatInt(i, 10)}
}

func UInt32(u uint32) Value {
	return Value{kind: typedesc.KindUInt32, text: strconv.FormatUint(uint64(u), 10)}
}

func UInt64(u uint64) Value {
	return Value{kind: typedesc.KindUInt64, text: strconv.FormatUint(u, 10)}
}

// Float64 renders f in its shortest round-tripping form. NaN and the infinities have no numeric literal and are
// written as quoted strings, which the supported stores cast back to floats.
func Float64(f float64) Value {
	switch {
	case math.IsNaN(f):
		return Value{kind: typedesc.KindString, text: "NaN"}
	case math.IsInf(f, 1):
		return Value{kind: typedesc.KindString, text: "Infinity"}
	case math.IsInf(f, -1):
		return Value{kind: typedesc.KindString, text: "-Infinity"}
	}
	return Value{kind: typedesc.KindFloat64, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Decimal takes the decimal in its textual form, e.g. "12.50", so that no precision is lost.
func Decimal(s string) Value {
	return Value{kind: typedesc.KindDecimal128, text: s}
}

func Timestamp(t time.Time) Value {
	return Value{kind: typedesc.KindTimestamp, text: t.UTC().Format(TimestampFormat)}
}

func Date(t time.Time) Value {
	return Value{kind: typedesc.KindDate, text: t.UTC().Format(DateFormat)}
}

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool {
	return v.kind == typedesc.KindNull
}

func (v Value) Kind() typedesc.Kind {
	return v.kind
}

// Literal renders v as a SQL literal for the given dialect. String-like and date/time values are single quoted with
// embedded quotes doubled, and backslashes doubled where the dialect treats them as escapes. Numbers and booleans
// are written unquoted. NULL is written as the keyword NULL.
func (v Value) Literal(d Dialect) string {
	if v.IsNull() {
		return "NULL"
	}
	if !(typedesc.DataType{Kind: v.kind}).IsQuoted() {
		return v.text
	}
	var b strings.Builder
	b.Grow(len(v.text) + 2)
	writeQuoted(&b, v.text, d)
	return b.String()
}

func writeQuoted(b *strings.Builder, s string, d Dialect) {
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			b.WriteString("''")
		case c == '\\' && d.BackslashEscapes:
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
}

func (v Value) String() string {
	return v.Literal(DialectDatabend)
}
