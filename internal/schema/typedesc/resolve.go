package typedesc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
)

var simpleKinds = map[string]Kind{
	"NULL":      KindNull,
	"BOOLEAN":   KindBoolean,
	"BOOL":      KindBoolean,
	"BINARY":    KindBinary,
	"VARCHAR":   KindString,
	"STRING":    KindString,
	"TINYINT":   KindInt8,
	"INT8":      KindInt8,
	"SMALLINT":  KindInt16,
	"INT16":     KindInt16,
	"INT":       KindInt32,
	"INT32":     KindInt32,
	"BIGINT":    KindInt64,
	"INT64":     KindInt64,
	"UINT8":     KindUInt8,
	"UINT16":    KindUInt16,
	"UINT32":    KindUInt32,
	"UINT64":    KindUInt64,
	"FLOAT":     KindFloat32,
	"FLOAT32":   KindFloat32,
	"DOUBLE":    KindFloat64,
	"FLOAT64":   KindFloat64,
	"TIMESTAMP": KindTimestamp,
	"DATE":      KindDate,
	"VARIANT":   KindVariant,
	"BITMAP":    KindBitmap,
	"GEOMETRY":  KindGeometry,
}

// ParseDataType parses and resolves a descriptor in one step.
func ParseDataType(s string) (DataType, error) {
	desc, err := Parse(s)
	if err != nil {
		return DataType{}, err
	}
	return Resolve(desc)
}

// Resolve maps a parsed descriptor to its storage type. Names are matched case-insensitively. An unknown name, the
// wrong number of arguments or invalid decimal parameters is an error.
func Resolve(desc TypeDesc) (DataType, error) {
	if desc.Nullable {
		inner := desc
		inner.Nullable = false
		dt, err := Resolve(inner)
		if err != nil {
			return DataType{}, err
		}
		return nullable(dt), nil
	}

	name := strings.ToUpper(desc.Name)
	if kind, ok := simpleKinds[name]; ok {
		if len(desc.Args) != 0 {
			return DataType{}, resolveError(desc, fmt.Sprintf("%s takes no arguments, got %d", name, len(desc.Args)))
		}
		return DataType{Kind: kind}, nil
	}

	switch name {
	case "DECIMAL":
		return resolveDecimal(desc)
	case "NULLABLE":
		if len(desc.Args) != 1 {
			return DataType{}, resolveError(desc, "NULLABLE type must have one argument")
		}
		// an inner NULL modifier is redundant
		arg := desc.Args[0]
		arg.Nullable = false
		inner, err := Resolve(arg)
		if err != nil {
			return DataType{}, err
		}
		return nullable(inner), nil
	case "ARRAY":
		if len(desc.Args) != 1 {
			return DataType{}, resolveError(desc, "ARRAY type must have one argument")
		}
		if isNothing(desc.Args[0]) {
			return DataType{Kind: KindEmptyArray}, nil
		}
		inner, err := Resolve(desc.Args[0])
		if err != nil {
			return DataType{}, err
		}
		return DataType{Kind: KindArray, Inner: []DataType{inner}}, nil
	case "MAP":
		if len(desc.Args) == 1 && isNothing(desc.Args[0]) {
			return DataType{Kind: KindEmptyMap}, nil
		}
		if len(desc.Args) != 2 {
			return DataType{}, resolveError(desc, "MAP type must have two arguments")
		}
		key, err := Resolve(desc.Args[0])
		if err != nil {
			return DataType{}, err
		}
		val, err := Resolve(desc.Args[1])
		if err != nil {
			return DataType{}, err
		}
		return DataType{Kind: KindMap, Inner: []DataType{key, val}}, nil
	case "TUPLE":
		if len(desc.Args) == 0 {
			return DataType{}, resolveError(desc, "TUPLE type must have at least one member")
		}
		members := make([]DataType, 0, len(desc.Args))
		for _, arg := range desc.Args {
			member, err := Resolve(arg)
			if err != nil {
				return DataType{}, err
			}
			members = append(members, member)
		}
		return DataType{Kind: KindTuple, Inner: members}, nil
	}
	return DataType{}, resolveError(desc, "unknown type "+desc.Name)
}

func resolveDecimal(desc TypeDesc) (DataType, error) {
	if len(desc.Args) != 2 {
		return DataType{}, resolveError(desc, "DECIMAL type must have precision and scale")
	}
	precision, err := decimalParam(desc, desc.Args[0], "precision")
	if err != nil {
		return DataType{}, err
	}
	scale, err := decimalParam(desc, desc.Args[1], "scale")
	if err != nil {
		return DataType{}, err
	}
	if precision < 1 || precision > MaxDecimalPrecision {
		return DataType{}, resolveError(desc, fmt.Sprintf("DECIMAL precision must be between 1 and %d", MaxDecimalPrecision))
	}
	if scale > precision {
		return DataType{}, resolveError(desc, "DECIMAL scale must not exceed precision")
	}
	kind := KindDecimal128
	if precision > MaxDecimal128Precision {
		kind = KindDecimal256
	}
	return DataType{Kind: kind, Precision: precision, Scale: scale}, nil
}

func decimalParam(parent, arg TypeDesc, what string) (uint8, error) {
	if arg.Nullable || len(arg.Args) > 0 {
		return 0, resolveError(parent, "DECIMAL "+what+" must be an integer")
	}
	v, err := strconv.ParseUint(arg.Name, 10, 8)
	if err != nil {
		return 0, resolveError(parent, fmt.Sprintf("DECIMAL %s %q is not an integer in [0, 255]", what, arg.Name))
	}
	return uint8(v), nil
}

func nullable(inner DataType) DataType {
	if inner.IsNullable() {
		return inner
	}
	return DataType{Kind: KindNullable, Inner: []DataType{inner}}
}

func isNothing(desc TypeDesc) bool {
	return strings.EqualFold(desc.Name, "NOTHING") && len(desc.Args) == 0
}

func resolveError(desc TypeDesc, msg string) error {
	s := desc.String()
	return errors.WithStack(&airbenderrors.ErrParse{
		Input:     s,
		Offending: s,
		Message:   msg,
	})
}
