package service

import (
	"context"
	"errors"

	"supplymatch/internal/repository"
	"supplymatch/internal/vectorindex"

	"go.uber.org/zap"
)

// fakeRepo keeps the catalog snapshot in memory and counts writes.
type fakeRepo struct {
	records   []repository.ItemRecord
	getErr    error
	saveErr   error
	saveCalls int
}

func (r *fakeRepo) Get(ctx context.Context) ([]repository.ItemRecord, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.records, nil
}

func (r *fakeRepo) Save(ctx context.Context, records []repository.ItemRecord) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records = records
	return nil
}

// fakeIndex records saved entries and serves canned search results.
type fakeIndex struct {
	entries    []vectorindex.Entry
	results    []vectorindex.Result
	searchErr  error
	resetCalls int
}

func (i *fakeIndex) Save(entries []vectorindex.Entry) error {
	i.entries = append(i.entries, entries...)
	return nil
}

func (i *fakeIndex) Search(query []float32, topK int) ([]vectorindex.Result, error) {
	if i.searchErr != nil {
		return nil, i.searchErr
	}
	if topK < len(i.results) {
		return i.results[:topK], nil
	}
	return i.results, nil
}

func (i *fakeIndex) Reset() error {
	i.resetCalls++
	i.entries = nil
	return nil
}

// fakeEmbedder returns a fixed vector and captures every embedded text.
type fakeEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (e *fakeEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.texts = append(e.texts, text)
	if e.vector != nil {
		return e.vector, nil
	}
	return []float32{0, 0}, nil
}

var errEmbedderDown = errors.New("embedder down")

func nopLogger() *zap.Logger { return zap.NewNop() }
