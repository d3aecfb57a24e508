package service

import (
	"context"
	"testing"

	"supplymatch/internal/filereader"
	"supplymatch/internal/models"
	"supplymatch/internal/normalizer"
	"supplymatch/internal/repository"
	"supplymatch/internal/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchCatalogRecords() []repository.ItemRecord {
	return []repository.ItemRecord{
		{ItemID: "drill-1", Name: "taladro electrico", Category: "herramientas", Description: "taladro 220v", Unit: "pcs", Active: true},
		{ItemID: "drill-2", Name: "taladro inalambrico", Category: "herramientas", Description: "taladro a bateria", Unit: "pcs", Active: true},
		{ItemID: "pipe-1", Name: "caneria pvc", Category: "plomeria", Description: "caneria de 2 pulgadas", Unit: "m", Active: true},
	}
}

func newTestMatchService(repo *fakeRepo, index *fakeIndex, embedder *fakeEmbedder, topK int, maxDistance float32) *MatchService {
	return NewMatchService(
		filereader.New(),
		normalizer.ForRequirements(),
		repo,
		embedder,
		index,
		topK,
		maxDistance,
		nopLogger(),
	)
}

func requirementsCSV() []byte {
	return []byte("name,quantity,unit\n" +
		"Taladro,2,pcs\n")
}

func TestMatchService_RanksByDistanceAndDropsFarCandidates(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.Result{
		{ItemID: "drill-1", Distance: 0.0},
		{ItemID: "drill-2", Distance: 0.1},
		{ItemID: "pipe-1", Distance: 10.0},
	}}
	svc := newTestMatchService(&fakeRepo{records: matchCatalogRecords()}, index, &fakeEmbedder{}, 3, 1.0)

	results, err := svc.Match(context.Background(), "requirements.csv", requirementsCSV())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Empty(t, results[0].Error)

	matches := results[0].Matches
	require.Len(t, matches, 2)
	assert.Equal(t, "drill-1", matches[0].CatalogItemID)
	assert.Equal(t, "drill-2", matches[1].CatalogItemID)
	assert.Equal(t, float32(0.0), matches[0].Score)
	assert.Equal(t, float32(0.1), matches[1].Score)

	// matches carry the full catalog fields
	assert.Equal(t, "taladro electrico", matches[0].Name)
	assert.Equal(t, "herramientas", matches[0].Category)
	assert.Equal(t, "pcs", matches[0].Unit)
}

func TestMatchService_NoCandidatesWithinThreshold(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.Result{
		{ItemID: "drill-1", Distance: 5.0},
	}}
	svc := newTestMatchService(&fakeRepo{records: matchCatalogRecords()}, index, &fakeEmbedder{}, 3, 1.0)

	results, err := svc.Match(context.Background(), "requirements.csv", requirementsCSV())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Matches)
	assert.Empty(t, results[0].Error)
}

func TestMatchService_UnknownIndexIDAbortsRun(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.Result{
		{ItemID: "ghost", Distance: 0.1},
	}}
	svc := newTestMatchService(&fakeRepo{records: matchCatalogRecords()}, index, &fakeEmbedder{}, 3, 1.0)

	_, err := svc.Match(context.Background(), "requirements.csv", requirementsCSV())
	assert.ErrorIs(t, err, models.ErrItemNotFound)
}

func TestMatchService_EmbedderFailureFailsOnlyItsRequirement(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.Result{
		{ItemID: "drill-1", Distance: 0.1},
	}}
	embedder := &fakeEmbedder{err: errEmbedderDown}
	svc := newTestMatchService(&fakeRepo{records: matchCatalogRecords()}, index, embedder, 3, 1.0)

	data := []byte("name,quantity,unit\n" +
		"Taladro,2,pcs\n" +
		"Martillo,1,pcs\n")

	results, err := svc.Match(context.Background(), "requirements.csv", data)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, result := range results {
		assert.NotEmpty(t, result.Error)
		assert.Empty(t, result.Matches)
	}
}

func TestMatchService_EmptyFile(t *testing.T) {
	svc := newTestMatchService(&fakeRepo{}, &fakeIndex{}, &fakeEmbedder{}, 3, 1.0)

	_, err := svc.Match(context.Background(), "requirements.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyRequirementFile)
}

func TestMatchService_NormalizationFailureAborts(t *testing.T) {
	svc := newTestMatchService(&fakeRepo{}, &fakeIndex{}, &fakeEmbedder{}, 3, 1.0)

	// missing the required quantity and unit columns
	data := []byte("name\nTaladro\n")

	_, err := svc.Match(context.Background(), "requirements.csv", data)
	require.Error(t, err)

	var normErr *normalizer.Error
	assert.ErrorAs(t, err, &normErr)
}

func TestMatchService_PreservesRequirementOrder(t *testing.T) {
	index := &fakeIndex{results: []vectorindex.Result{
		{ItemID: "drill-1", Distance: 0.1},
	}}
	svc := newTestMatchService(&fakeRepo{records: matchCatalogRecords()}, index, &fakeEmbedder{}, 3, 1.0)

	data := []byte("name,quantity,unit\n" +
		"Primero,1,pcs\n" +
		"Segundo,2,pcs\n" +
		"Tercero,3,pcs\n")

	results, err := svc.Match(context.Background(), "requirements.csv", data)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "primero", results[0].Requirement["name"])
	assert.Equal(t, "segundo", results[1].Requirement["name"])
	assert.Equal(t, "tercero", results[2].Requirement["name"])
}

func TestMatchService_EmbedsDeterministicQueryText(t *testing.T) {
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	svc := newTestMatchService(&fakeRepo{records: matchCatalogRecords()}, index, embedder, 3, 1.0)

	data := []byte(`[{"name": "Taladro", "quantity": 2, "unit": "pcs", "description": "Taladro Eléctrico"}]`)

	_, err := svc.Match(context.Background(), "requirements.json", data)
	require.NoError(t, err)

	require.Len(t, embedder.texts, 1)
	assert.Equal(t,
		"name: taladro | description: taladro electrico | category:  | subcategory:  | unit: pcs | provider:  | attributes: ",
		embedder.texts[0],
	)
}

func TestQueryText(t *testing.T) {
	requirement := map[string]any{
		"name":        "taladro",
		"description": "taladro 220v",
		"category":    "herramientas",
		"unit":        "pcs",
		"quantity":    float64(2),
		"priority":    "alta",
		"attributes":  map[string]any{"voltaje": "220", "potencia": "500w"},
	}

	got := QueryText(requirement)
	want := "name: taladro | description: taladro 220v | category: herramientas" +
		" | subcategory:  | unit: pcs | provider: " +
		" | attributes: potencia:500w,voltaje:220"
	assert.Equal(t, want, got)

	// quantity and priority never leak into the embedded text
	assert.NotContains(t, got, "quantity")
	assert.NotContains(t, got, "alta")
}

func TestQueryText_EmptyRequirement(t *testing.T) {
	got := QueryText(map[string]any{})
	assert.Equal(t,
		"name:  | description:  | category:  | subcategory:  | unit:  | provider:  | attributes: ",
		got,
	)
}
