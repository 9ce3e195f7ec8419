package schema

import (
	"fmt"
	"strings"
)

// ParsedTag holds the db struct-tag configuration for one field.
//
// Supported syntax:
//
//	`db:"column_name"`          // explicit column mapping
//	`db:"-"`                    // skip field entirely
//	`db:"column:custom_name"`   // explicit column name, option form
//	`db:"jsonb"`                // JSON-container column
//	`db:"generator:uuid"`       // auto-generated value on insert
//
// Options are separated by semicolons and may be combined, e.g.
// `db:"body;jsonb"`.
type ParsedTag struct {
	ColumnName string
	Skip       bool
	JSONB      bool
	Generator  string
}

func parseTag(fieldName, tagValue string, naming NamingStrategy) (*ParsedTag, error) {
	parsed := &ParsedTag{
		ColumnName: naming.ColumnName(fieldName),
	}
	if tagValue == "" {
		return parsed, nil
	}
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	// Simple column name is the common case. Bare flags are still
	// flags, not column names.
	if !strings.ContainsAny(tagValue, ";:") {
		if tagValue == "jsonb" || tagValue == "json" {
			parsed.JSONB = true
		} else {
			parsed.ColumnName = tagValue
		}
		return parsed, nil
	}

	for _, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if err := parsed.parseOption(fieldName, option, naming); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

func (t *ParsedTag) parseOption(fieldName, option string, naming NamingStrategy) error {
	if colonIdx := strings.IndexByte(option, ':'); colonIdx != -1 {
		key := strings.TrimSpace(option[:colonIdx])
		value := strings.TrimSpace(option[colonIdx+1:])
		switch key {
		case "column", "name":
			t.ColumnName = value
		case "generator", "gen":
			if _, ok := generators[value]; !ok {
				return fmt.Errorf("field %s: unknown generator %q", fieldName, value)
			}
			t.Generator = value
		default:
			// Unknown key:value options are ignored for forward compatibility.
		}
		return nil
	}

	switch option {
	case "jsonb", "json":
		t.JSONB = true
	default:
		// First bare option doubles as a column name when no column was
		// given explicitly, matching the simple-form behavior.
		if t.ColumnName == naming.ColumnName(fieldName) {
			t.ColumnName = option
		}
	}
	return nil
}
