// Package vectorindex provides a flat L2 nearest-neighbor index over float32
// embeddings, persisted to disk together with its item_id mapping.
package vectorindex

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrDimensionMismatch is returned when a vector does not match the index
// dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Entry pairs an item identifier with its embedding.
type Entry struct {
	ItemID    string
	Embedding []float32
}

// Result is a single nearest-neighbor hit. Distance is the squared L2
// distance to the query; lower means more similar.
type Result struct {
	ItemID   string
	Distance float32
}

// Flat is a brute-force L2 index. Save appends entries and persists both the
// vectors and the position-to-item_id mapping in lockstep, so that the
// durable mapping always matches the index contents once Save returns.
type Flat struct {
	mu          sync.RWMutex
	dimension   int
	path        string
	mappingPath string
	vectors     [][]float32
	ids         []string
	logger      *zap.Logger
}

type flatSnapshot struct {
	Dimension int
	Vectors   [][]float32
}

// NewFlat opens the index at path, loading any previously persisted vectors
// and mapping. The mapping lives next to the index file with a .json suffix.
func NewFlat(dimension int, path string, logger *zap.Logger) (*Flat, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	f := &Flat{
		dimension:   dimension,
		path:        path,
		mappingPath: mappingPath(path),
		logger:      logger,
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	if len(f.ids) != len(f.vectors) {
		return nil, fmt.Errorf("index %s holds %d vectors but mapping lists %d ids",
			path, len(f.vectors), len(f.ids))
	}
	return f, nil
}

func mappingPath(indexPath string) string {
	ext := filepath.Ext(indexPath)
	return strings.TrimSuffix(indexPath, ext) + ".json"
}

func (f *Flat) load() error {
	if _, err := os.Stat(f.path); err == nil {
		file, err := os.Open(f.path)
		if err != nil {
			return fmt.Errorf("open index file: %w", err)
		}
		defer file.Close()

		var snap flatSnapshot
		if err := gob.NewDecoder(file).Decode(&snap); err != nil {
			return fmt.Errorf("decode index file %s: %w", f.path, err)
		}
		if snap.Dimension != f.dimension {
			return fmt.Errorf("index file %s has dimension %d, expected %d: %w",
				f.path, snap.Dimension, f.dimension, ErrDimensionMismatch)
		}
		f.vectors = snap.Vectors
	}

	if data, err := os.ReadFile(f.mappingPath); err == nil {
		if err := json.Unmarshal(data, &f.ids); err != nil {
			return fmt.Errorf("decode mapping file %s: %w", f.mappingPath, err)
		}
	}
	return nil
}

// Save appends the entries and persists the index. A call with no entries is
// a no-op. Every previously saved entry plus the new ones is searchable once
// Save returns.
func (f *Flat) Save(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	vectors := make([][]float32, 0, len(f.vectors)+len(entries))
	vectors = append(vectors, f.vectors...)
	ids := make([]string, 0, len(f.ids)+len(entries))
	ids = append(ids, f.ids...)

	for _, entry := range entries {
		if entry.ItemID == "" {
			return errors.New("entry is missing item_id")
		}
		if len(entry.Embedding) != f.dimension {
			return fmt.Errorf("entry %s has dimension %d, expected %d: %w",
				entry.ItemID, len(entry.Embedding), f.dimension, ErrDimensionMismatch)
		}
		vectors = append(vectors, entry.Embedding)
		ids = append(ids, entry.ItemID)
	}

	if err := f.persist(vectors, ids); err != nil {
		return err
	}
	f.vectors = vectors
	f.ids = ids

	f.logger.Debug("vector index saved",
		zap.Int("added", len(entries)),
		zap.Int("total", len(ids)),
	)
	return nil
}

// Reset clears the index and its persisted files.
func (f *Flat) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.persist(nil, []string{}); err != nil {
		return err
	}
	f.vectors = nil
	f.ids = nil
	return nil
}

// persist writes vectors and mapping atomically, files committed before the
// in-memory state is replaced by the caller.
func (f *Flat) persist(vectors [][]float32, ids []string) error {
	snap := flatSnapshot{Dimension: f.dimension, Vectors: vectors}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".index-*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	if err := gob.NewEncoder(tmp).Encode(&snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace index file: %w", err)
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := os.WriteFile(f.mappingPath, data, 0o644); err != nil {
		return fmt.Errorf("write mapping file: %w", err)
	}
	return nil
}

// Search returns up to topK entries ordered by ascending distance. Fewer
// results are returned when fewer entries are indexed.
func (f *Flat) Search(query []float32, topK int) ([]Result, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("query has dimension %d, expected %d: %w",
			len(query), f.dimension, ErrDimensionMismatch)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("invalid top_k %d", topK)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	results := make([]Result, 0, len(f.vectors))
	for pos, vector := range f.vectors {
		results = append(results, Result{
			ItemID:   f.ids[pos],
			Distance: squaredL2(query, vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Len returns the number of indexed entries.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// squaredL2 matches the distance of a flat L2 index: the squared Euclidean
// distance, without the final square root.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
