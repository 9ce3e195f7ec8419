package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// dynamicMarker is the call-time assembly point in a dynamic
// statement's fixed SQL.
const dynamicMarker = "{dynamic}"

// bindDynamic assembles the final SQL of a dynamic statement. Values
// bound as fixed arguments keep their build-time slots; every other
// supplied value becomes a `col = $N` assignment with slots continuing
// after the fixed ones. Columns known to the model validate against
// their declared field type; unknown columns validate as Any. Extra
// columns are ordered by name: the caller's map carries no order of its
// own, so sorting keeps the SQL deterministic.
func (s *statement[T]) bindDynamic(values Args) (string, []any, error) {
	fixed := make(Args, len(values))
	var extraNames []string
	for name, value := range values {
		if findArg(s.args, name) != nil {
			fixed[name] = value
		} else {
			extraNames = append(extraNames, name)
		}
	}
	if len(extraNames) == 0 {
		return "", nil, fmt.Errorf("typeq: dynamic statement requires at least one unbound value")
	}
	sort.Strings(extraNames)

	positional, err := s.bindFixed(fixed)
	if err != nil {
		return "", nil, err
	}

	extraFields := make([]schema.ArgField, len(extraNames))
	for i, name := range extraNames {
		declared := schema.AnyType
		if field, ok := s.meta.Field(name); ok {
			declared = field.Type
		}
		extraFields[i] = schema.ArgField{Name: name, Type: declared}
	}

	validated, err := schema.ValidateValues(extraFields, values)
	if err != nil {
		return "", nil, err
	}

	slots := s.slotCount()
	assignments := make([]string, len(extraNames))
	for i, name := range extraNames {
		value := validated[name]
		if extraFields[i].Type.IsJSON() {
			encoded, err := schema.EncodeJSONValue(value)
			if err != nil {
				return "", nil, err
			}
			value = encoded
		}
		slots++
		assignments[i] = name + " = " + placeholder(slots)
		positional = append(positional, value)
	}

	sql := strings.Replace(s.sql, dynamicMarker, strings.Join(assignments, ", "), 1)
	return sql, positional, nil
}

// slotCount returns the number of positional slots the fixed arguments
// occupy.
func (s *statement[T]) slotCount() int {
	slots := 0
	for _, arg := range s.args {
		if last := arg.Index + arg.Width - 1; last > slots {
			slots = last
		}
	}
	return slots
}
