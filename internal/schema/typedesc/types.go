package typedesc

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a concrete storage type.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindBinary
	KindString
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindDecimal128
	KindDecimal256
	KindTimestamp
	KindDate
	KindNullable
	KindArray
	KindEmptyArray
	KindMap
	KindEmptyMap
	KindTuple
	KindVariant
	KindBitmap
	KindGeometry
)

// MaxDecimal128Precision is the largest precision stored in 128 bits; anything above uses 256 bits.
const (
	MaxDecimal128Precision = 38
	MaxDecimalPrecision    = 76
)

var kindNames = map[Kind]string{
	KindNull:       "NULL",
	KindBoolean:    "BOOLEAN",
	KindBinary:     "BINARY",
	KindString:     "VARCHAR",
	KindInt8:       "TINYINT",
	KindInt16:      "SMALLINT",
	KindInt32:      "INT",
	KindInt64:      "BIGINT",
	KindUInt8:      "UINT8",
	KindUInt16:     "UINT16",
	KindUInt32:     "UINT32",
	KindUInt64:     "UINT64",
	KindFloat32:    "FLOAT",
	KindFloat64:    "DOUBLE",
	KindDecimal128: "DECIMAL",
	KindDecimal256: "DECIMAL",
	KindTimestamp:  "TIMESTAMP",
	KindDate:       "DATE",
	KindNullable:   "NULLABLE",
	KindArray:      "ARRAY",
	KindEmptyArray: "ARRAY(NOTHING)",
	KindMap:        "MAP",
	KindEmptyMap:   "MAP(NOTHING)",
	KindTuple:      "TUPLE",
	KindVariant:    "VARIANT",
	KindBitmap:     "BITMAP",
	KindGeometry:   "GEOMETRY",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// DataType is a resolved storage type. Inner holds the element type of NULLABLE and ARRAY, the key and value
// types of MAP and the members of TUPLE. Precision and Scale are only meaningful for decimals.
type DataType struct {
	Kind      Kind
	Inner     []DataType
	Precision uint8
	Scale     uint8
}

// IsNullable reports whether values of the type may be NULL.
func (t DataType) IsNullable() bool {
	return t.Kind == KindNullable || t.Kind == KindNull
}

// NonNullable strips an outer NULLABLE wrapper, if any.
func (t DataType) NonNullable() DataType {
	if t.Kind == KindNullable {
		return t.Inner[0]
	}
	return t
}

// IsQuoted reports whether literals of this type are written inside single quotes.
func (t DataType) IsQuoted() bool {
	switch t.NonNullable().Kind {
	case KindString, KindBinary, KindVariant, KindBitmap, KindGeometry, KindTimestamp, KindDate:
		return true
	default:
		return false
	}
}

// String renders the type as it appears in DDL. A nullable element inside a composite type is written with a
// trailing NULL, e.g. ARRAY(INT NULL); a top level nullable is rendered as its inner type because column
// nullability is expressed with NOT NULL in the column clause.
func (t DataType) String() string {
	switch t.Kind {
	case KindNullable:
		return t.Inner[0].String() + " NULL"
	case KindDecimal128, KindDecimal256:
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale)
	case KindArray:
		return "ARRAY(" + t.Inner[0].String() + ")"
	case KindMap:
		return "MAP(" + t.Inner[0].String() + ", " + t.Inner[1].String() + ")"
	case KindTuple:
		members := make([]string, len(t.Inner))
		for i, inner := range t.Inner {
			members[i] = inner.String()
		}
		return "TUPLE(" + strings.Join(members, ", ") + ")"
	default:
		return t.Kind.String()
	}
}
