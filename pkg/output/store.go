package output

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"dyngrid/pkg/engine"
)

var (
	// ErrNoRun is returned when a store holds no run to open.
	ErrNoRun = errors.New("output: no run recorded")
	// ErrCorruptFrame is returned for payloads that do not match the run shape.
	ErrCorruptFrame = errors.New("output: corrupt frame")
)

const latestKey = "run/latest"

// StoreConfig configures a badger-backed frame store.
type StoreConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool

	// Run names the run. CreateStore picks a random UUID when empty;
	// OpenStore opens the most recent run.
	Run string

	// Frames is the declared run length. OpenStore keeps the recorded
	// value when zero.
	Frames int
	FPS    float64

	// Labels are free-form notes recorded with a new run, such as the
	// model that produced it.
	Labels map[string]string

	// Logger receives badger's own log lines. Nil silences them.
	Logger *slog.Logger
}

// RunMeta is what a store records about a run besides its frames.
type RunMeta struct {
	Run    string  `json:"run"`
	Shape  []int   `json:"shape,omitempty"`
	Frames int     `json:"frames"`
	FPS    float64 `json:"fps"`
	Last   int     `json:"last"`
	// Cells is how frame values are encoded: float64, int64 or uint64.
	// Empty means float64.
	Cells string `json:"cells,omitempty"`

	Labels map[string]string `json:"labels,omitempty"`
}

// StoreOutput persists frames in badger under frame/<run>/<t> keys. Values
// are stored as 8-byte little-endian words: float64 for float grids, int64 or
// uint64 for integer grids, so a run written by one process can be resumed by
// another without losing precision.
type StoreOutput[T engine.Number] struct {
	db   *badger.DB
	meta RunMeta
	buf  []byte
}

// CreateStore opens the database at cfg.Path and starts a new run in it.
func CreateStore[T engine.Number](cfg StoreConfig) (*StoreOutput[T], error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	run := cfg.Run
	if run == "" {
		run = uuid.NewString()
	}
	s := &StoreOutput[T]{db: db, meta: RunMeta{
		Run:    run,
		Frames: max(cfg.Frames, 1),
		FPS:    cfg.FPS,
		Cells:  cellEncoding[T](),
		Labels: maps.Clone(cfg.Labels),
	}}
	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(latestKey), []byte(run)); err != nil {
			return err
		}
		return s.putMeta(txn)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("output: create run %s: %w", run, err)
	}
	return s, nil
}

// OpenStore reopens a recorded run so it can be read or resumed.
func OpenStore[T engine.Number](cfg StoreConfig) (*StoreOutput[T], error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	s := &StoreOutput[T]{db: db}
	err = db.View(func(txn *badger.Txn) error {
		run := cfg.Run
		if run == "" {
			v, err := get(txn, latestKey)
			if err != nil {
				return err
			}
			run = string(v)
		}
		v, err := get(txn, metaKey(run))
		if err != nil {
			return err
		}
		return json.Unmarshal(v, &s.meta)
	})
	if err != nil {
		db.Close()
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNoRun
		}
		return nil, fmt.Errorf("output: open run: %w", err)
	}
	if cfg.Frames > 0 {
		s.meta.Frames = cfg.Frames
	}
	if cfg.FPS > 0 {
		s.meta.FPS = cfg.FPS
	}
	return s, nil
}

func openDB(cfg StoreConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("output: store path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("output: create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("output: open badger database: %w", err)
	}
	return db, nil
}

// badgerLogger adapts slog to badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Close releases the database.
func (s *StoreOutput[T]) Close() error { return s.db.Close() }

// Run returns the run identifier.
func (s *StoreOutput[T]) Run() string { return s.meta.Run }

// Meta returns a copy of the run metadata.
func (s *StoreOutput[T]) Meta() RunMeta {
	m := s.meta
	m.Shape = slices.Clone(m.Shape)
	m.Labels = maps.Clone(m.Labels)
	return m
}

func (s *StoreOutput[T]) Len() int     { return s.meta.Frames }
func (s *StoreOutput[T]) FPS() float64 { return s.meta.FPS }

// Store writes frame and advances the recorded last clock value in one
// transaction.
func (s *StoreOutput[T]) Store(t int, frame *engine.Array[T]) error {
	shape := frame.Shape()
	if s.meta.Shape == nil {
		s.meta.Shape = shape
	} else if !slices.Equal(s.meta.Shape, shape) {
		return fmt.Errorf("%w: frame %d has shape %v, run has %v", ErrCorruptFrame, t, shape, s.meta.Shape)
	}
	s.buf = s.encode(s.buf[:0], frame.Cells())
	prev := s.meta.Last
	s.meta.Last = max(s.meta.Last, t)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(frameKey(s.meta.Run, t), s.buf); err != nil {
			return err
		}
		return s.putMeta(txn)
	})
	if err != nil {
		s.meta.Last = prev
		return fmt.Errorf("output: store frame %d: %w", t, err)
	}
	return nil
}

// Last reads the most recent frame back from the database.
func (s *StoreOutput[T]) Last() (int, *engine.Array[T], bool) {
	if s.meta.Last == 0 {
		return 0, nil, false
	}
	f, err := s.Frame(s.meta.Last)
	if err != nil {
		return 0, nil, false
	}
	return s.meta.Last, f, true
}

// Frame reads the frame stored for clock value t.
func (s *StoreOutput[T]) Frame(t int) (*engine.Array[T], error) {
	var f *engine.Array[T]
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(s.meta.Run, t))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			f, err = s.decode(v)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoFrame
	}
	if err != nil {
		return nil, fmt.Errorf("output: read frame %d: %w", t, err)
	}
	return f, nil
}

// Each calls fn for every stored frame in clock order.
func (s *StoreOutput[T]) Each(fn func(t int, frame *engine.Array[T]) error) error {
	prefix := []byte("frame/" + s.meta.Run + "/")
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			t, err := strconv.Atoi(string(item.Key()[len(prefix):]))
			if err != nil {
				return fmt.Errorf("%w: key %q", ErrCorruptFrame, item.Key())
			}
			var f *engine.Array[T]
			if err := item.Value(func(v []byte) error {
				f, err = s.decode(v)
				return err
			}); err != nil {
				return err
			}
			if err := fn(t, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *StoreOutput[T]) putMeta(txn *badger.Txn) error {
	v, err := json.Marshal(s.meta)
	if err != nil {
		return err
	}
	return txn.Set([]byte(metaKey(s.meta.Run)), v)
}

func (s *StoreOutput[T]) decode(v []byte) (*engine.Array[T], error) {
	if len(v)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptFrame, len(v))
	}
	cells := make([]T, len(v)/8)
	switch s.meta.Cells {
	case "", encFloat:
		for i := range cells {
			cells[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(v[8*i:])))
		}
	case encInt:
		for i := range cells {
			cells[i] = T(int64(binary.LittleEndian.Uint64(v[8*i:])))
		}
	case encUint:
		for i := range cells {
			cells[i] = T(binary.LittleEndian.Uint64(v[8*i:]))
		}
	default:
		return nil, fmt.Errorf("%w: unknown cell encoding %q", ErrCorruptFrame, s.meta.Cells)
	}
	a, err := engine.ArrayFrom(cells, s.meta.Shape...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
	}
	return a, nil
}

// Cell encodings. Integer grids keep their full 64-bit range.
const (
	encFloat = "float64"
	encInt   = "int64"
	encUint  = "uint64"
)

// cellEncoding picks the encoding that holds every value of T exactly.
func cellEncoding[T engine.Number]() string {
	var zero T
	half := 0.5
	switch {
	case T(half) != zero:
		return encFloat
	case zero-1 < zero:
		return encInt
	default:
		return encUint
	}
}

// encode appends cells in the run's encoding. Frames of an opened run are
// written the way the run was created, whatever T the reader uses.
func (s *StoreOutput[T]) encode(dst []byte, cells []T) []byte {
	switch s.meta.Cells {
	case encInt:
		for _, c := range cells {
			dst = binary.LittleEndian.AppendUint64(dst, uint64(int64(c)))
		}
	case encUint:
		for _, c := range cells {
			dst = binary.LittleEndian.AppendUint64(dst, uint64(c))
		}
	default:
		for _, c := range cells {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(float64(c)))
		}
	}
	return dst
}

func get(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func metaKey(run string) string { return "run/" + run + "/meta" }

// frameKey zero-pads t so that key order is clock order.
func frameKey(run string, t int) []byte {
	return fmt.Appendf(nil, "frame/%s/%010d", run, t)
}
