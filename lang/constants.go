package lang

import (
	"maps"
	"slices"
	"strings"
)

// Constants maps constant names declared with "global" to their resolved
// values. Redeclaring a name overwrites the previous value.
type Constants map[string]Value

// Lookup implements [Resolver].
func (c Constants) Lookup(name string) (Value, bool) {
	v, ok := c[name]

	return v, ok
}

// Define binds name to v, replacing any earlier binding.
func (c Constants) Define(name string, v Value) {
	c[name] = v
}

// Names returns the declared constant names in sorted order.
func (c Constants) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// DeclaredConstants returns the names declared by "global" lines in text, in
// order of first declaration, without evaluating any values.
func DeclaredConstants(text string) []string {
	var names []string

	seen := make(map[string]struct{})

	for _, line := range sourceLines(text) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, declPrefix) {
			continue
		}

		name, _, ok := strings.Cut(strings.TrimPrefix(line, declPrefix), assignOperator)
		name = strings.TrimSpace(name)

		if !ok || !isIdentifier(name) {
			continue
		}

		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}
