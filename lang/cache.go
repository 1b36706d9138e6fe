package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// cacheCapacity is the number of parse results kept by [ParseCached]. The
// oldest result is evicted first.
const cacheCapacity = 64

var (
	// globalCache stores parse results keyed by source content hash.
	globalCache sync.Map

	// cacheOrder lists the keys of globalCache in insertion order.
	cacheOrder struct {
		sync.Mutex
		keys []string
	}
)

// cacheEntry holds the result of parsing one source text. The document is
// never handed out directly; callers receive clones.
type cacheEntry struct {
	once sync.Once
	doc  *Document
	err  error
}

// ParseReader reads all of r and evaluates it with [ParseString].
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Document, error) {
	// Wrap reader with async read-ahead so large inputs are fetched while
	// earlier chunks are copied.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	o := makeOptions(opts...)
	o.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)))

	return ParseString(ctx, string(data), opts...)
}

// ParseCached is [ParseString] memoized by the content of text. Identical
// sources are evaluated once while cached, even when requested from multiple
// goroutines. At most cacheCapacity results are retained. Every call returns
// an independent copy of the document.
func ParseCached(
	ctx context.Context,
	text string,
	opts ...Option,
) (*Document, error) {
	hash := xxh3.HashString(text)
	key := strconv.FormatUint(hash, 36)

	value, hit := globalCache.LoadOrStore(key, new(cacheEntry))
	entry := value.(*cacheEntry)

	if !hit {
		remember(key)
	}

	o := makeOptions(opts...)
	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit))

	entry.once.Do(func() {
		entry.doc, entry.err = ParseString(ctx, text, opts...)
	})

	if entry.err != nil {
		return nil, entry.err
	}

	return entry.doc.Clone(), nil
}

// remember records key as the newest cache entry and evicts the oldest
// entries beyond cacheCapacity.
func remember(key string) {
	cacheOrder.Lock()
	defer cacheOrder.Unlock()

	cacheOrder.keys = append(cacheOrder.keys, key)

	for len(cacheOrder.keys) > cacheCapacity {
		globalCache.Delete(cacheOrder.keys[0])
		cacheOrder.keys = cacheOrder.keys[1:]
	}
}

// ClearCache removes all memoized parse results.
func ClearCache() {
	cacheOrder.Lock()
	defer cacheOrder.Unlock()

	globalCache.Clear()
	cacheOrder.keys = nil
}
