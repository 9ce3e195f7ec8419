package query

import "github.com/Konsultn-Engineering/typeq/schema"

// SplatFunc expands one logical argument value into an ordered sequence
// of positional bind values (e.g. a whole model spread into its
// fields).
type SplatFunc func(value any) ([]any, error)

// Argument is one named statement argument. Its positional slot is
// assigned when the name is first referenced and never changes, because
// the wire protocol binds by position.
type Argument struct {
	// Name is the key the caller supplies at execution time.
	Name string

	// Type is the declared type validated against the call-time value.
	Type schema.Type

	// Index is the first positional slot ($Index), 1-based.
	Index int

	// Width is the number of positional slots the argument occupies.
	// 1 for plain arguments; the splat arity otherwise.
	Width int

	// Splat, when set, expands the call-time value into Width
	// positional values.
	Splat SplatFunc

	// Generator, when set, supplies a value at bind time if the caller
	// omitted one (auto-generated insert columns).
	Generator schema.IDGenerator
}

// findArg returns the registered argument with the given name, or nil.
func findArg(args []Argument, name string) *Argument {
	for i := range args {
		if args[i].Name == name {
			return &args[i]
		}
	}
	return nil
}

// argFields builds the ad-hoc validation schema for a registered
// argument list.
func argFields(args []Argument) []schema.ArgField {
	fields := make([]schema.ArgField, len(args))
	for i, a := range args {
		fields[i] = schema.ArgField{Name: a.Name, Type: a.Type}
	}
	return fields
}
