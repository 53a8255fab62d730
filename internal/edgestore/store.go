package edgestore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hupe1980/rankgo/internal/blockcodec"
	"github.com/hupe1980/rankgo/internal/fs"
)

// DefaultThreshold is the edge count above which a disk-caching Store spills.
const DefaultThreshold int64 = 30_000_000

// Throttle limits spill I/O. resource.Controller satisfies it.
type Throttle interface {
	AcquireIO(ctx context.Context, bytes int) error
}

// Config configures a Store.
type Config struct {
	// DiskCaching enables the one-time move of edge data to a temp file.
	DiskCaching bool
	// Threshold is the edge count above which the move happens.
	// Defaults to DefaultThreshold if <= 0.
	Threshold int64
	// Dir is the directory for the temp file. Empty means os.TempDir().
	Dir string
	// FS defaults to fs.Default.
	FS fs.FileSystem
	// Compression applied to spill blocks.
	Compression blockcodec.Type
	// Throttle is optional.
	Throttle Throttle
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

type state uint8

const (
	stateMemory state = iota
	stateDisk
)

func (s state) String() string {
	if s == stateDisk {
		return "disk"
	}
	return "memory"
}

var errAlreadySpilled = errors.New("edgestore: already spilled")

// Store is the edge sequence of one graph.
type Store struct {
	cfg   Config
	state state
	mem   *memoryBackend
	disk  *diskBackend // nil until spilled
	words int64
}

// New creates an empty in-memory Store.
func New(cfg Config) *Store {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.FS == nil {
		cfg.FS = fs.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		cfg: cfg,
		mem: newMemoryBackend(),
	}
}

func (s *Store) active() backend {
	if s.state == stateDisk {
		return s.disk
	}
	return s.mem
}

// Reserve runs the spill check for a batch that will bring the edge count to
// projectedEdges. It reports whether this call moved the data to disk.
func (s *Store) Reserve(ctx context.Context, projectedEdges int64) (bool, error) {
	if !s.cfg.DiskCaching || s.state != stateMemory || projectedEdges <= s.cfg.Threshold {
		return false, nil
	}
	if err := s.spill(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// spill performs the memory -> disk transition.
func (s *Store) spill(ctx context.Context) error {
	if s.state != stateMemory {
		return errAlreadySpilled
	}

	disk, err := createDiskBackend(s.cfg)
	if err != nil {
		return err
	}
	for chunk := range s.mem.buf.Chunks() {
		if err := disk.appendWords(ctx, chunk); err != nil {
			_ = disk.remove()
			return err
		}
	}
	if err := disk.flush(ctx); err != nil {
		_ = disk.remove()
		return err
	}

	s.cfg.Logger.Debug("edge data moved to disk",
		"path", disk.path,
		"words", s.words,
		"compression", s.cfg.Compression.String(),
	)

	s.mem.reset()
	s.disk = disk
	s.state = stateDisk
	return nil
}

// AppendHeader writes the (sourceID, outDegree) group header.
func (s *Store) AppendHeader(ctx context.Context, sourceID, outDegree int32) error {
	return s.append2(ctx, sourceID, outDegree)
}

// AppendEdge writes one (destID, scaledWeight) entry.
func (s *Store) AppendEdge(ctx context.Context, destID, scaledWeight int32) error {
	return s.append2(ctx, destID, scaledWeight)
}

func (s *Store) append2(ctx context.Context, a, b int32) error {
	be := s.active()
	if err := be.append(ctx, a); err != nil {
		return err
	}
	if err := be.append(ctx, b); err != nil {
		return err
	}
	s.words += 2
	return nil
}

// Read returns a reader positioned at the first word. Each call starts a new
// pass; the previous reader must be closed first.
func (s *Store) Read(ctx context.Context) (*Reader, error) {
	src, err := s.active().source(ctx)
	if err != nil {
		return nil, err
	}
	return &Reader{src: src}, nil
}

// Spilled reports whether the data lives on disk.
func (s *Store) Spilled() bool { return s.state == stateDisk }

// Words returns the number of int32 words written.
func (s *Store) Words() int64 { return s.words }

// Path returns the temp file path, or "" while in memory.
func (s *Store) Path() string {
	if s.disk == nil {
		return ""
	}
	return s.disk.path
}

// BytesOnDisk returns the framed size of the temp file.
func (s *Store) BytesOnDisk() int64 {
	if s.disk == nil {
		return 0
	}
	return s.disk.bytesWritten()
}

// Clear closes and removes the temp file (if any) and empties the Store.
// It is safe to call on an empty or already cleared Store.
func (s *Store) Clear() error {
	var err error
	if s.disk != nil {
		err = s.disk.remove()
		s.disk = nil
	}
	s.mem.reset()
	s.state = stateMemory
	s.words = 0
	return err
}
