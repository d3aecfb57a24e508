package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T, dimension int) *Flat {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.index")
	index, err := NewFlat(dimension, path, zap.NewNop())
	require.NoError(t, err)
	return index
}

func TestFlat_SaveAndSearch(t *testing.T) {
	index := newTestIndex(t, 2)

	require.NoError(t, index.Save([]Entry{
		{ItemID: "far", Embedding: []float32{10, 0}},
		{ItemID: "near", Embedding: []float32{1, 0}},
		{ItemID: "exact", Embedding: []float32{0, 0}},
	}))
	require.Equal(t, 3, index.Len())

	results, err := index.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact", results[0].ItemID)
	assert.Equal(t, "near", results[1].ItemID)
	assert.Equal(t, "far", results[2].ItemID)

	assert.Equal(t, float32(0), results[0].Distance)
	assert.Equal(t, float32(1), results[1].Distance)
	assert.Equal(t, float32(100), results[2].Distance)
}

func TestFlat_SearchTruncatesToTopK(t *testing.T) {
	index := newTestIndex(t, 2)

	require.NoError(t, index.Save([]Entry{
		{ItemID: "a", Embedding: []float32{1, 0}},
		{ItemID: "b", Embedding: []float32{2, 0}},
		{ItemID: "c", Embedding: []float32{3, 0}},
	}))

	results, err := index.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ItemID)
	assert.Equal(t, "b", results[1].ItemID)
}

func TestFlat_SearchFewerThanTopK(t *testing.T) {
	index := newTestIndex(t, 2)

	require.NoError(t, index.Save([]Entry{
		{ItemID: "only", Embedding: []float32{1, 1}},
	}))

	results, err := index.Search([]float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestFlat_SearchEmptyIndex(t *testing.T) {
	index := newTestIndex(t, 2)

	results, err := index.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFlat_DimensionMismatch(t *testing.T) {
	index := newTestIndex(t, 2)

	err := index.Save([]Entry{{ItemID: "a", Embedding: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = index.Search([]float32{1}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlat_SaveRejectsMissingID(t *testing.T) {
	index := newTestIndex(t, 2)

	err := index.Save([]Entry{{ItemID: "", Embedding: []float32{1, 2}}})
	require.Error(t, err)
	assert.Equal(t, 0, index.Len())
}

func TestFlat_SaveEmptyIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.index")
	index, err := NewFlat(2, path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, index.Save(nil))
	assert.Equal(t, 0, index.Len())
	assert.NoFileExists(t, path)
}

func TestFlat_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.index")

	index, err := NewFlat(2, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, index.Save([]Entry{
		{ItemID: "a", Embedding: []float32{1, 0}},
		{ItemID: "b", Embedding: []float32{0, 1}},
	}))

	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, "catalog.json"))

	reopened, err := NewFlat(2, path, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Len())

	results, err := reopened.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ItemID)
}

func TestFlat_ReopenWithWrongDimension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.index")

	index, err := NewFlat(2, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, index.Save([]Entry{{ItemID: "a", Embedding: []float32{1, 0}}}))

	_, err = NewFlat(3, path, zap.NewNop())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlat_Reset(t *testing.T) {
	index := newTestIndex(t, 2)

	require.NoError(t, index.Save([]Entry{{ItemID: "a", Embedding: []float32{1, 0}}}))
	require.Equal(t, 1, index.Len())

	require.NoError(t, index.Reset())
	assert.Equal(t, 0, index.Len())

	results, err := index.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFlat_SaveAppends(t *testing.T) {
	index := newTestIndex(t, 2)

	require.NoError(t, index.Save([]Entry{{ItemID: "a", Embedding: []float32{5, 0}}}))
	require.NoError(t, index.Save([]Entry{{ItemID: "b", Embedding: []float32{1, 0}}}))

	results, err := index.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ItemID)
	assert.Equal(t, "a", results[1].ItemID)
}
