// Package typedesc parses the textual column type grammar used in table declarations, e.g.
// "NULLABLE(ARRAY(DECIMAL(10, 2)))" or "VARCHAR NULL", and resolves the result to a concrete storage type.
package typedesc

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
)

// TypeDesc is the parsed, unresolved form of a type descriptor.
type TypeDesc struct {
	Name     string
	Nullable bool
	Args     []TypeDesc
}

// Parse turns a descriptor into a TypeDesc tree. No partial result is returned on error.
func Parse(s string) (TypeDesc, error) {
	desc, err := parse(s, s)
	if err != nil {
		return TypeDesc{}, err
	}
	return desc, nil
}

func parse(input, s string) (TypeDesc, error) {
	var (
		name     string
		args     []TypeDesc
		nullable bool
		opened   bool
		depth    int
		start    int
	)
	for i, c := range s {
		switch c {
		case '(':
			if depth == 0 {
				token := strings.TrimSpace(s[start:i])
				if opened || nullable || (name != "" && token != "") {
					return TypeDesc{}, parseError(input, s[i:], "unexpected argument list")
				}
				if name == "" {
					name = token
				}
				opened = true
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth < 0 {
				return TypeDesc{}, parseError(input, s[i:], "unbalanced parentheses")
			}
			if depth == 0 {
				if arg := s[start:i]; strings.TrimSpace(arg) != "" || len(args) > 0 {
					desc, err := parse(input, arg)
					if err != nil {
						return TypeDesc{}, err
					}
					args = append(args, desc)
				}
				start = i + 1
			}
		case ',':
			if depth == 0 {
				return TypeDesc{}, parseError(input, s[i:], "unexpected ','")
			}
			if depth == 1 {
				desc, err := parse(input, s[start:i])
				if err != nil {
					return TypeDesc{}, err
				}
				args = append(args, desc)
				start = i + 1
			}
		case ' ':
			if depth == 0 {
				if token := s[start:i]; token != "" {
					if name == "" {
						name = token
					} else if err := checkModifier(input, name, token, nullable); err != nil {
						return TypeDesc{}, err
					} else {
						nullable = true
					}
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return TypeDesc{}, parseError(input, s, "unbalanced parentheses")
	}
	if start < len(s) {
		if token := s[start:]; token != "" {
			if name == "" {
				name = token
			} else if err := checkModifier(input, name, token, nullable); err != nil {
				return TypeDesc{}, err
			} else {
				nullable = true
			}
		}
	}
	if name == "" {
		return TypeDesc{}, parseError(input, s, "missing type name")
	}
	return TypeDesc{
		Name:     name,
		Nullable: nullable,
		Args:     args,
	}, nil
}

func checkModifier(input, name, token string, nullable bool) error {
	if !strings.EqualFold(token, "NULL") {
		return parseError(input, token, "invalid type modifier for "+name)
	}
	if nullable {
		return parseError(input, token, "duplicate NULL modifier for "+name)
	}
	return nil
}

func parseError(input, offending, msg string) error {
	return errors.WithStack(&airbenderrors.ErrParse{
		Input:     input,
		Offending: offending,
		Message:   msg,
	})
}

// String renders the descriptor back into the grammar accepted by Parse.
func (d TypeDesc) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Args) > 0 {
		b.WriteString("(")
		for i, arg := range d.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(arg.String())
		}
		b.WriteString(")")
	}
	if d.Nullable {
		b.WriteString(" NULL")
	}
	return b.String()
}
