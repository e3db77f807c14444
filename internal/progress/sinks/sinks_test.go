package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/sitetruth/internal/progress"
)

func pageEvent(runID uuid.UUID, stage progress.Stage, bytes int64) progress.Event {
	return progress.Event{
		RunID:       runID,
		TS:          time.Now().UTC(),
		Stage:       stage,
		Domain:      "acme.example",
		URL:         "https://acme.example/",
		Bytes:       bytes,
		StatusClass: progress.Status2xx,
	}
}

func TestPrometheusSinkCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := uuid.New()
	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart, Domain: "acme.example"},
		pageEvent(runID, progress.StagePageDone, 2048),
		pageEvent(runID, progress.StagePageCache, 1024),
		{RunID: runID, TS: time.Now(), Stage: progress.StagePageFail, Domain: "acme.example", URL: "https://acme.example/x", StatusClass: progress.Status4xx},
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunDone, Domain: "acme.example", Dur: 3 * time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.pages.WithLabelValues("fetched", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.pages.WithLabelValues("cached", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.pages.WithLabelValues("failed", "4xx")))
	assert.Equal(t, 3072.0, testutil.ToFloat64(sink.pageBytes.WithLabelValues("acme.example")))
}

func TestMemorySinkRunsAndRecent(t *testing.T) {
	sink := NewMemorySink(4)
	runID := uuid.New()

	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart, Domain: "acme.example"},
		pageEvent(runID, progress.StagePageDone, 100),
		pageEvent(runID, progress.StagePageFail, 0),
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunDone, Domain: "acme.example"},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	runs := sink.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "done", runs[0].State)
	assert.Equal(t, 1, runs[0].PagesDone)
	assert.Equal(t, 1, runs[0].PagesFail)
	assert.Equal(t, int64(100), runs[0].Bytes)

	recent := sink.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, progress.StageRunDone, recent[1].Stage)
}

func TestMemorySinkRingWraps(t *testing.T) {
	sink := NewMemorySink(2)
	runID := uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Consume(context.Background(), []progress.Event{pageEvent(runID, progress.StagePageDone, int64(i))}))
	}
	recent := sink.Recent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(3), recent[0].Bytes)
	assert.Equal(t, int64(4), recent[1].Bytes)
}
