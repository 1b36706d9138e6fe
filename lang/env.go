package lang

// This file defines the builtin environment available to query expressions.
// The environment is built once per process and cloned on every access so
// callers may add document keys without affecting the shared copy.

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

var builtinEnv = sync.OnceValue(func() map[string]any {
	return map[string]any{
		// Process environment.
		"env": processEnv(os.Environ()),

		// Path manipulation functions.
		"path": map[string]any{
			"abs": pathAbs,
			"cat": pathCat,
		},

		// PATH-like string manipulation via mung.
		"mung": map[string]any{
			"prefix": mungPrefix,
		},
	}
})

// makeEnv returns a mutable copy of the builtin environment.
func makeEnv() map[string]any {
	return maps.Clone(builtinEnv())
}

// BuiltinEnvKeys returns the sorted top-level names in the builtin query
// environment.
func BuiltinEnvKeys() []string {
	return slices.Sorted(maps.Keys(builtinEnv()))
}

// BuiltinEnv returns a copy of the builtin query environment.
func BuiltinEnv() map[string]any { return makeEnv() }

// BuiltinEnvLookup returns the sorted member names of the builtin namespace
// at the dot-separated path, such as "path" or "env". It returns nil if the
// path does not name a namespace.
func BuiltinEnvLookup(path string) []string {
	var current any = builtinEnv()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = m[seg]
		if !ok {
			return nil
		}
	}

	switch m := current.(type) {
	case map[string]any:
		return slices.Sorted(maps.Keys(m))

	case map[string]string:
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// processEnv converts a "KEY=VALUE" list to a map.
func processEnv(list []string) map[string]string {
	result := make(map[string]string, len(list))

	for _, entry := range list {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			result[key] = value
		}
	}

	return result
}

func pathAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

// mungPrefix prepends the given items to a delimited list, such as the value
// of PATH, removing duplicates.
func mungPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}
