package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type outputKey struct{}

// WithOutput returns a new context.Context whose commands print their results
// to w instead of os.Stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// outputFrom returns the writer stored by [WithOutput], or os.Stdout.
func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

type inputKey struct{}

// WithInput returns a new context.Context whose commands read the "-" source
// from r instead of os.Stdin.
func WithInput(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, inputKey{}, r)
}

// inputFrom returns the reader stored by [WithInput], or os.Stdin.
func inputFrom(ctx context.Context) io.Reader {
	if r, ok := ctx.Value(inputKey{}).(io.Reader); ok && r != nil {
		return r
	}

	return os.Stdin
}

// SourceFiles reads the concatenation of one or more konfigypr sources.
type SourceFiles interface {
	IsZero() bool
	Names() []string
	io.Reader
	io.WriterTo
	io.Closer
}

type sourceFiles struct {
	names  []string
	files  []io.Reader
	stdin  io.Reader
	reader io.Reader
}

// IsZero reports whether there are no sources.
func (s *sourceFiles) IsZero() bool { return len(s.files) == 0 && s.stdin == nil }

// Names returns the source names in read order. Standard input is "-".
func (s *sourceFiles) Names() []string { return s.names }

// all returns one reader over every source in order, with a line break
// between consecutive sources so that a file without a trailing newline
// cannot join its last line to the next file's first line.
func (s *sourceFiles) all() io.Reader {
	if s.reader != nil {
		return s.reader
	}

	readers := make([]io.Reader, 0, 2*len(s.files)+1)

	for _, f := range s.files {
		readers = append(readers, f, strings.NewReader("\n"))
	}

	if s.stdin != nil {
		readers = append(readers, s.stdin)
	}

	s.reader = io.MultiReader(readers...)

	return s.reader
}

// Read implements io.Reader by reading from all sources in order, with
// standard input last.
func (s *sourceFiles) Read(p []byte) (n int, err error) {
	return s.all().Read(p)
}

// WriteTo implements io.WriterTo.
func (s *sourceFiles) WriteTo(w io.Writer) (n int64, err error) {
	return io.Copy(w, s.all())
}

// Close closes every opened file.
func (s *sourceFiles) Close() error {
	var errs []error

	for _, f := range s.files {
		if c, ok := f.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}

	return errors.Join(errs...)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// openSourceFiles opens the given sources for reading as one stream.
//
// Files are deduplicated by resolving symlinks and comparing device/inode
// pairs. Every "-" refers to the single stdin reader of ctx, which is read
// after all regular files. A source that does not exist fails with
// [ErrInputNotFound].
func openSourceFiles(ctx context.Context, sources []string) (SourceFiles, error) {
	srcs := &sourceFiles{files: make([]io.Reader, 0, len(sources))}
	seen := make(map[fileKey]struct{})

	hasStdin := false

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		file, ok, err := openUniqueFile(src, seen)
		if err != nil {
			_ = srcs.Close()

			return nil, err
		}

		if !ok {
			continue
		}

		srcs.names = append(srcs.names, src)
		srcs.files = append(srcs.files, file)
	}

	if hasStdin {
		srcs.names = append(srcs.names, stdinSource)
		srcs.stdin = inputFrom(ctx)
	}

	return srcs, nil
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates, in which
// case it returns false and no error.
func openUniqueFile(
	path string,
	seen map[fileKey]struct{},
) (*os.File, bool, error) {
	// Resolve to absolute path to handle relative path duplicates.
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false, ErrReadInput.Wrap(err).
			With(slog.String("file", path))
	}

	// Resolve symlinks to their target.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false, inputError(path, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false, inputError(path, err)
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return nil, false, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false, inputError(path, err)
	}

	return file, true, nil
}

// inputError classifies a failure to open the input file at path.
func inputError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrInputNotFound.Wrap(err).With(slog.String("file", path))
	}

	return ErrReadInput.Wrap(err).With(slog.String("file", path))
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
