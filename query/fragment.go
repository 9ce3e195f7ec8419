package query

import (
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// hintTypes is the static table of explicit argument type hints
// ({name: hint}). Unknown hint names are configuration errors.
var hintTypes = map[string]schema.Type{
	"int":   {Kind: schema.Int},
	"str":   {Kind: schema.String},
	"bool":  {Kind: schema.Bool},
	"float": {Kind: schema.Float},
}

// parseFragment scans a template string for embedded argument
// references and replaces each with its positional placeholder.
//
// Three reference forms are recognized:
//
//	{name}        untyped argument, validated as Any
//	{.field}      model field reference, typed from the schema
//	{name: hint}  explicit scalar hint (int, str, bool, float)
//
// Repeated references to one name resolve to the same placeholder; the
// first occurrence's declared type wins. Literal braces are written as
// {{ and }}. Text outside references passes through verbatim.
func (b *Builder[T]) parseFragment(contents string) (string, *Builder[T]) {
	if !strings.ContainsAny(contents, "{}") {
		return contents, b
	}

	var out strings.Builder
	out.Grow(len(contents) + 8)

	pos := 0
	for pos < len(contents) {
		c := contents[pos]
		switch c {
		case '{':
			if pos+1 < len(contents) && contents[pos+1] == '{' {
				out.WriteByte('{')
				pos += 2
				continue
			}
			end := strings.IndexByte(contents[pos:], '}')
			if end == -1 {
				return "", b.withErr(configErrorf("unterminated argument reference in %q", contents))
			}
			token := contents[pos+1 : pos+end]
			pos += end + 1

			ref, b2 := b.resolveReference(token)
			if b2.err != nil {
				return "", b2
			}
			out.WriteString(ref)
			b = b2

		case '}':
			if pos+1 < len(contents) && contents[pos+1] == '}' {
				out.WriteByte('}')
				pos += 2
				continue
			}
			return "", b.withErr(configErrorf("single '}' encountered in %q", contents))

		default:
			out.WriteByte(c)
			pos++
		}
	}

	return out.String(), b
}

// resolveReference turns one reference token into a positional
// placeholder, registering a new argument when the name is unseen.
func (b *Builder[T]) resolveReference(token string) (string, *Builder[T]) {
	name := token
	var hint string
	if colonIdx := strings.IndexByte(token, ':'); colonIdx != -1 {
		name = strings.TrimSpace(token[:colonIdx])
		hint = strings.TrimSpace(token[colonIdx+1:])
	}

	declared := schema.AnyType

	if strings.HasPrefix(name, ".") {
		if hint != "" {
			return "", b.withErr(configErrorf("model field reference {%s} cannot also have a type hint", token))
		}
		name = name[1:]
		field, ok := b.meta.Field(name)
		if !ok {
			return "", b.withErr(configErrorf("model %s has no field %q", b.meta.Name, name))
		}
		declared = field.Type
	} else if hint != "" {
		t, ok := hintTypes[hint]
		if !ok {
			return "", b.withErr(configErrorf("unsupported argument type hint %q", hint))
		}
		declared = t
	}

	if name == "" {
		return "", b.withErr(configErrorf("empty argument reference {%s}", token))
	}

	return b.withArg(name, declared)
}

// placeholder formats a 1-based positional slot as wire text.
func placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}
