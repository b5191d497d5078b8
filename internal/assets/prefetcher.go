// Package assets implements the model warmup service.
//
// PrefetchModel is fire-and-forget: callers queue a model path and move
// on, a small worker pool reads the files so the session's first real
// request finds them hot. Paths arrive in config notation (backslashes,
// usually no extension) and are normalized before queueing.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	gopath "path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

const (
	defaultModelExt    = ".ogf"
	defaultWorkers     = 4
	defaultQueueSize   = 1024
	defaultMaxModelMiB = 16
)

// Options configures a Prefetcher. Zero fields fall back to defaults.
type Options struct {
	ModelRoot    string // directory model paths are resolved against
	ModelExt     string // appended when a path has no extension, default ".ogf"
	Workers      int    // worker pool size, default 4
	QueueSize    int    // pending request capacity, default 1024
	MaxModelSize int64  // larger files are skipped, default 16 MiB
}

// Entry describes one successfully loaded model.
type Entry struct {
	Path   string // normalized relative path
	Size   int64
	Digest [blake2b.Size256]byte
}

// Stats is a point-in-time snapshot of prefetcher counters.
type Stats struct {
	Queued     int64 // requests accepted into the queue
	Dropped    int64 // requests rejected (bad path, full queue, closed)
	Loaded     int64 // models read successfully
	Failed     int64 // models that could not be read
	Oversized  int64 // models skipped by the size cap
	Duplicates int64 // distinct paths with identical content
	Bytes      int64 // total bytes read
}

// Prefetcher warms up model files through a bounded worker pool.
type Prefetcher struct {
	root    string
	ext     string
	maxSize int64
	workers int

	mu     sync.RWMutex
	closed bool
	queue  chan string

	entries sync.Map // map[string]*Entry — normalized path → entry
	digests sync.Map // map[[32]byte]string — content digest → first path
	seen    sync.Map // map[string]struct{} — paths already accepted

	queued     atomic.Int64
	dropped    atomic.Int64
	loaded     atomic.Int64
	failed     atomic.Int64
	oversized  atomic.Int64
	duplicates atomic.Int64
	bytes      atomic.Int64

	closeOnce sync.Once
}

// NewPrefetcher creates a prefetcher; Start must be called before queued
// paths are actually loaded.
func NewPrefetcher(opts Options) *Prefetcher {
	if opts.ModelExt == "" {
		opts.ModelExt = defaultModelExt
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.MaxModelSize <= 0 {
		opts.MaxModelSize = defaultMaxModelMiB << 20
	}

	return &Prefetcher{
		root:    opts.ModelRoot,
		ext:     opts.ModelExt,
		maxSize: opts.MaxModelSize,
		workers: opts.Workers,
		queue:   make(chan string, opts.QueueSize),
	}
}

// PrefetchModel queues a model for warmup and returns immediately. Bad
// paths, repeats and a full queue are logged and dropped, never reported
// back to the caller.
func (p *Prefetcher) PrefetchModel(path string) {
	key, err := normalizePath(path, p.ext)
	if err != nil {
		p.dropped.Add(1)
		slog.Warn("prefetch request rejected", "path", path, "error", err)
		return
	}

	if _, dup := p.seen.LoadOrStore(key, struct{}{}); dup {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		slog.Warn("prefetch request after close", "path", key)
		return
	}

	select {
	case p.queue <- key:
		p.queued.Add(1)
	default:
		p.dropped.Add(1)
		slog.Warn("prefetch queue full, dropping", "path", key)
	}
}

// Start runs the worker pool until the queue is closed and drained or ctx
// is canceled. Blocks; run it under an errgroup.
func (p *Prefetcher) Start(ctx context.Context) error {
	slog.Info("prefetcher started",
		"root", p.root,
		"workers", p.workers,
		"queue", cap(p.queue))

	g, gctx := errgroup.WithContext(ctx)
	for range p.workers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case key, ok := <-p.queue:
					if !ok {
						return nil
					}
					p.load(key)
				}
			}
		})
	}
	return g.Wait()
}

// Close stops accepting requests; workers finish the remaining queue and
// Start returns. Safe to call more than once.
func (p *Prefetcher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
}

// CachedEntry returns the entry for an already loaded model. The path is
// normalized the same way PrefetchModel normalizes it.
func (p *Prefetcher) CachedEntry(path string) (*Entry, bool) {
	key, err := normalizePath(path, p.ext)
	if err != nil {
		return nil, false
	}
	value, ok := p.entries.Load(key)
	if !ok {
		return nil, false
	}
	return value.(*Entry), true
}

// Stats returns a snapshot of the counters.
func (p *Prefetcher) Stats() Stats {
	return Stats{
		Queued:     p.queued.Load(),
		Dropped:    p.dropped.Load(),
		Loaded:     p.loaded.Load(),
		Failed:     p.failed.Load(),
		Oversized:  p.oversized.Load(),
		Duplicates: p.duplicates.Load(),
		Bytes:      p.bytes.Load(),
	}
}

// load reads one model from disk and records it.
func (p *Prefetcher) load(key string) {
	fullPath := filepath.Join(p.root, filepath.FromSlash(key))

	info, err := os.Stat(fullPath)
	if err != nil {
		p.failed.Add(1)
		slog.Error("model file missing", "path", key, "error", err)
		return
	}
	if info.Size() > p.maxSize {
		p.oversized.Add(1)
		slog.Warn("model exceeds size cap, skipping",
			"path", key,
			"size", info.Size(),
			"max", p.maxSize)
		return
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		p.failed.Add(1)
		slog.Error("reading model file", "path", key, "error", err)
		return
	}

	digest := blake2b.Sum256(data)
	p.entries.Store(key, &Entry{
		Path:   key,
		Size:   int64(len(data)),
		Digest: digest,
	})

	if first, exists := p.digests.LoadOrStore(digest, key); exists && first.(string) != key {
		p.duplicates.Add(1)
		slog.Debug("duplicate model content", "path", key, "first", first.(string))
	}

	p.loaded.Add(1)
	p.bytes.Add(int64(len(data)))
	slog.Debug("model prefetched", "path", key, "size", len(data))
}

// normalizePath converts a config-notation model path (backslashes,
// optional extension) into a clean slash-separated relative path.
func normalizePath(raw, ext string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", fmt.Errorf("empty model path")
	}

	cleaned = gopath.Clean(strings.ReplaceAll(cleaned, `\`, "/"))
	if cleaned == "." || cleaned == "/" {
		return "", fmt.Errorf("empty model path %q", raw)
	}
	if gopath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("model path escapes root: %q", raw)
	}

	if gopath.Ext(cleaned) == "" {
		cleaned += ext
	}
	return cleaned, nil
}
