package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// NamingStrategy converts Go identifiers to database names.
type NamingStrategy interface {
	// ColumnName converts a Go field name to a database column name.
	ColumnName(fieldName string) string
	// TableName converts a Go struct name to a database table name.
	TableName(structName string) string
}

// snakeCaseNaming is the default strategy: snake_case columns and
// pluralized snake_case tables (users, blog_posts).
type snakeCaseNaming struct {
	plural bool
}

// DefaultNamingStrategy returns snake_case columns with plural tables.
func DefaultNamingStrategy() NamingStrategy {
	return &snakeCaseNaming{plural: true}
}

// SingularNamingStrategy returns snake_case columns with singular tables.
func SingularNamingStrategy() NamingStrategy {
	return &snakeCaseNaming{plural: false}
}

func (s *snakeCaseNaming) ColumnName(fieldName string) string {
	return toSnakeCase(fieldName)
}

func (s *snakeCaseNaming) TableName(structName string) string {
	snake := toSnakeCase(structName)
	if !s.plural {
		return snake
	}
	return pluralizeClient.Pluralize(snake, 2, false)
}

// SnakeCase converts a Go identifier to snake_case. Exposed for
// callers that derive argument names from model names.
func SnakeCase(name string) string {
	return toSnakeCase(name)
}

// toSnakeCase converts any naming convention to snake_case.
// Handles acronym runs (HTTPServer -> http_server) and digits.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// Common initialisms that would otherwise split badly.
	switch name {
	case "ID":
		return "id"
	case "UUID":
		return "uuid"
	case "URL":
		return "url"
	case "JSON":
		return "json"
	case "SQL":
		return "sql"
	}

	// Already snake_case.
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return strings.ToLower(name)
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteByte('_')
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
