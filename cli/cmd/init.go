package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/konfigypr/lang"
	"github.com/ardnew/konfigypr/log"
	"github.com/ardnew/konfigypr/profile"
)

// configFileMode is the permission mode of the generated configuration file.
const configFileMode os.FileMode = 0o600

// configHeader is written above the generated assignments.
const configHeader = "# konfigypr configuration, one flag per line\n"

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	doc := i.document(ctx)

	var buf bytes.Buffer

	buf.WriteString(configHeader)

	if err := lang.FormatNative(ctx, &buf, doc); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	if err := os.WriteFile(confPath, buf.Bytes(), configFileMode); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("keys", doc.Len()),
	)

	return nil
}

// ConfigKey returns the configuration file key of the flag with the given
// name. Hyphens are not valid in konfigypr names, so they become underscores.
func ConfigKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// document builds the configuration document from current flag values.
func (i *Init) document(ctx context.Context) *lang.Document {
	ktx := kongContextFrom(ctx)

	doc := lang.NewDocument()

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val, ok := flagValue(ktx.FlagValue(flag)); ok {
			doc.Set(ConfigKey(flag.Name), val)
		}
	}

	return doc
}

// flagValue converts a parsed flag value to a document value. It returns false
// for unset and empty values.
//
// Kong reads numbers back from strings, so values without a konfigypr number
// form, such as negative integers, are stored as strings.
func flagValue(val any) (lang.Value, bool) {
	if val == nil {
		return lang.Value{}, false
	}

	if s, ok := val.(fmt.Stringer); ok {
		return stringValue(s.String())
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.Bool:
		return lang.NewBool(rv.Bool()), true

	case reflect.String:
		return stringValue(rv.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n := rv.Int(); n >= 0 {
			return lang.NewInteger(n), true
		}

		return lang.NewString(strconv.FormatInt(rv.Int(), 10)), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return lang.NewBigInteger(new(big.Int).SetUint64(rv.Uint())), true

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f >= 0 {
			return lang.NewFloat(f), true
		}

		return lang.NewString(strconv.FormatFloat(f, 'f', -1, 64)), true

	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return lang.Value{}, false
		}

		elems := make([]lang.Value, 0, rv.Len())

		for i := range rv.Len() {
			if elem, ok := flagValue(rv.Index(i).Interface()); ok {
				elems = append(elems, elem)
			}
		}

		return lang.NewArray(elems...), true

	default:
		return stringValue(fmt.Sprint(val))
	}
}

func stringValue(s string) (lang.Value, bool) {
	if s == "" {
		return lang.Value{}, false
	}

	return lang.NewString(s), true
}
