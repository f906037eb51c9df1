package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/bayesnet/internal/history"
	"github.com/gyaneshwarpardhi/bayesnet/internal/query"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q1 := &query.Query{ID: "q1", Evidence: map[string]string{"T_sensor": "baja"}, ReceivedAt: first}
	r1 := &query.Result{
		QueryID:   "q1",
		Algorithm: "rejection",
		Samples:   1000,
		Results: []query.TargetResult{
			{Target: "EstadoMicrobiano", Distribution: map[string]float64{"Bueno": 0.2, "Degradado": 0.8}},
			{Target: "EstadoOperativo", Distribution: map[string]float64{}, Empty: true},
		},
	}
	require.NoError(t, s.Record(ctx, q1, r1))

	q2 := &query.Query{ID: "q2", ReceivedAt: first.Add(time.Minute)}
	r2 := &query.Result{
		QueryID:   "q2",
		Algorithm: "likelihood_weighting",
		Samples:   500,
		Results: []query.TargetResult{
			{Target: "pHReal", Distribution: map[string]float64{"Acido": 0.1, "Neutro": 0.8, "Alcalino": 0.1}},
		},
	}
	require.NoError(t, s.Record(ctx, q2, r2))

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "q2", recs[0].QueryID)
	assert.Equal(t, "pHReal", recs[0].Target)
	assert.Equal(t, first.Add(time.Minute), recs[0].CreatedAt)
	assert.Empty(t, recs[0].Evidence)
	assert.NotNil(t, recs[0].Evidence)

	// Rows of the same query come back in reverse insertion order.
	assert.Equal(t, "EstadoOperativo", recs[1].Target)
	assert.True(t, recs[1].Empty)
	assert.Empty(t, recs[1].Distribution)

	assert.Equal(t, "EstadoMicrobiano", recs[2].Target)
	assert.Equal(t, "rejection", recs[2].Algorithm)
	assert.Equal(t, 1000, recs[2].Samples)
	assert.Equal(t, map[string]string{"T_sensor": "baja"}, recs[2].Evidence)
	assert.InDelta(t, 0.8, recs[2].Distribution["Degradado"], 1e-12)
	assert.NotEqual(t, recs[1].ID, recs[2].ID)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "q2", limited[0].QueryID)
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := openStore(t)
	recs, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := history.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), &query.Query{ID: "q"}, &query.Result{
		QueryID: "q", Algorithm: "rejection", Samples: 1,
		Results: []query.TargetResult{{Target: "A", Distribution: map[string]float64{"True": 1}}},
	}))
	require.NoError(t, s.Close())

	s, err = history.Open(path)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Target)
}
