package crops

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

func TestEmbeddedCatalog(t *testing.T) {
	svc := newTestService(t, Config{})

	list := svc.List(context.Background())
	require.Equal(t, []Summary{
		{ID: "rice", Name: "Rice"},
		{ID: "wheat", Name: "Wheat"},
		{ID: "cotton", Name: "Cotton"},
		{ID: "tomato", Name: "Tomato"},
		{ID: "maize", Name: "Maize/Corn"},
	}, list)

	rec, err := svc.Recommend(context.Background(), " Rice ")
	require.NoError(t, err)
	require.Equal(t, "120 kg N, 60 kg P2O5, 40 kg K2O per hectare", rec.Fertilizer.Dosage)
	require.Contains(t, rec.PestControl.CommonPests, "Brown Plant Hopper")
	require.Equal(t, "Full P & K at sowing", mustRecommend(t, svc, "wheat").Fertilizer.ApplicationTiming[0])

	for _, crop := range list {
		rec := mustRecommend(t, svc, crop.ID)
		require.NotEmpty(t, rec.PestControl.CommonPests, crop.ID)
		require.NotEmpty(t, rec.PestControl.OrganicSolutions, crop.ID)
		require.NotEmpty(t, rec.PestControl.ChemicalSolutions, crop.ID)
		require.NotEmpty(t, rec.PestControl.PreventiveMeasures, crop.ID)
		require.NotEmpty(t, rec.Fertilizer.PrimaryFertilizers, crop.ID)
		require.NotEmpty(t, rec.Fertilizer.Dosage, crop.ID)
	}
}

func TestRecommendReturnsCopies(t *testing.T) {
	svc := newTestService(t, Config{})
	rec := mustRecommend(t, svc, "tomato")
	rec.PestControl.CommonPests[0] = "mutated"

	require.Equal(t, "Fruit Borer", mustRecommend(t, svc, "tomato").PestControl.CommonPests[0])
}

func TestRecommendUnknownCrop(t *testing.T) {
	svc := newTestService(t, Config{})
	_, err := svc.Recommend(context.Background(), "banana")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestCatalogOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crops:\n  - id: Millet\n    fertilizer:\n      dosage: 40 kg N per hectare\n"), 0o600))

	svc := newTestService(t, Config{CatalogPath: path})
	require.Equal(t, []Summary{{ID: "millet", Name: "millet"}}, svc.List(context.Background()))
	require.Equal(t, "40 kg N per hectare", mustRecommend(t, svc, "millet").Fertilizer.Dosage)
}

func TestParseCatalogErrors(t *testing.T) {
	for _, doc := range []string{
		"crops: []",
		"crops:\n  - name: Nameless\n",
		"crops:\n  - id: rice\n  - id: RICE\n",
		"crops: [",
	} {
		_, err := parseCatalog([]byte(doc))
		require.Error(t, err, doc)
	}
}

func newTestService(t *testing.T, cfg Config) Service {
	t.Helper()
	svc, err := NewService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc
}

func mustRecommend(t *testing.T, svc Service, id string) Recommendation {
	t.Helper()
	rec, err := svc.Recommend(context.Background(), id)
	require.NoError(t, err)
	return rec
}
