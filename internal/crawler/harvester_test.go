package crawler

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/headlines/internal/query"
	"github.com/go-scripts/headlines/internal/types"
)

func records(items []item, positions ...int) []types.HeadlineRecord {
	out := make([]types.HeadlineRecord, len(positions))
	for i, pos := range positions {
		it := items[pos-1]
		out[i] = types.HeadlineRecord{Index: i + 1, PublishedAt: it.published, Headline: it.headline}
	}
	return out
}

func TestProbeThenHarvest(t *testing.T) {
	items := validItems(patA, 5)
	d := query.Build("", "talous", "", types.AnyTime())

	probeArchive := &fakeArchive{collapseAt: 3, perPage: 2, items: items}
	safe, err := (&Prober{Opener: probeArchive, Layout: testLayout, Options: testOptions()}).Probe(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, types.SafeLoadCount(2), safe)

	harvestArchive := &fakeArchive{collapseAt: 3, perPage: 2, items: items}
	h := &Harvester{Opener: harvestArchive, Layout: testLayout, Options: testOptions()}
	res, err := h.Harvest(context.Background(), d, safe, 5)
	require.NoError(t, err)

	if diff := cmp.Diff(records(items, 1, 2, 3, 4, 5), res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, harvestArchive.collapses)
	assert.Zero(t, harvestArchive.openSessions())
	assert.False(t, res.Short())
}

func TestHarvestNeverCollapses(t *testing.T) {
	for k := 0; k <= 6; k++ {
		items := validItems(patB, 3*(k+1))
		d := query.Build("", "k", "", types.AnyTime())

		safe, err := (&Prober{Opener: &fakeArchive{collapseAt: k, perPage: 3, items: items}, Layout: testLayout, Options: testOptions()}).Probe(context.Background(), d)
		require.NoError(t, err)

		archive := &fakeArchive{collapseAt: k, perPage: 3, items: items}
		h := &Harvester{Opener: archive, Layout: testLayout, Options: testOptions()}
		res, err := h.Harvest(context.Background(), d, safe, len(items))
		require.NoError(t, err)

		assert.Zero(t, archive.collapses, "k=%d", k)
		assert.NotEmpty(t, res.Records, "k=%d", k)
	}
}

func TestHarvestSkipsPositionsWithoutHeadline(t *testing.T) {
	items := validItems(patB, 5)
	items[3] = item{kind: patNone, published: "2024-01-04T08:00:00.000Z", slot: 1}
	items[4].kind = patA

	opts := testOptions()
	opts.ScanLimit = 10
	archive := &fakeArchive{perPage: 5, items: items}
	h := &Harvester{Opener: archive, Layout: testLayout, Options: opts}

	res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, 4)
	require.NoError(t, err)

	if diff := cmp.Diff(records(items, 1, 2, 3, 5), res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, res.Scanned)
}

func TestHarvestStopsAtScanLimit(t *testing.T) {
	items := make([]item, 30)
	for i := range items {
		items[i] = item{kind: patNone}
	}

	opts := testOptions()
	opts.ScanLimit = 7
	archive := &fakeArchive{perPage: 30, items: items}
	h := &Harvester{Opener: archive, Layout: testLayout, Options: opts}

	res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, 3)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 7, res.Scanned)
	assert.False(t, res.Exhausted)
	assert.True(t, res.Short())
}

func TestHarvestStopsAtEndOfList(t *testing.T) {
	items := validItems(patC, 3)
	archive := &fakeArchive{perPage: 10, items: items}
	h := &Harvester{Opener: archive, Layout: testLayout, Options: testOptions()}

	res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, 10)
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 3, res.Scanned)
}

func TestHarvestNeverExceedsWanted(t *testing.T) {
	items := validItems(patD, 20)
	archive := &fakeArchive{perPage: 20, items: items}
	h := &Harvester{Opener: archive, Layout: testLayout, Options: testOptions()}

	res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, 6)
	require.NoError(t, err)
	assert.Len(t, res.Records, 6)
	assert.Equal(t, 6, res.Scanned)
}

func TestHarvestMissingPublishedClosesSession(t *testing.T) {
	items := validItems(patA, 3)
	items[1].slot = 0
	archive := &fakeArchive{perPage: 3, items: items}
	h := &Harvester{Opener: archive, Layout: testLayout, Options: testOptions()}

	res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, 3)
	require.ErrorIs(t, err, ErrPublishedMissing)
	assert.Len(t, res.Records, 1)
	assert.Zero(t, archive.openSessions())
}

func TestHarvestMissingControlStopsPaging(t *testing.T) {
	items := validItems(patA, 4)
	archive := &fakeArchive{perPage: 2, items: items}
	obs := &recordingObserver{}
	opts := testOptions()
	opts.Observer = obs
	h := &Harvester{Opener: archive, Layout: testLayout, Options: opts}

	res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 3, 4)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.True(t, res.Exhausted)
	assert.Zero(t, obs.clicks[PhaseHarvesting])
	assert.Equal(t, []Phase{PhaseHarvesting}, obs.started)
	assert.Equal(t, []Phase{PhaseHarvesting}, obs.done)
	assert.Equal(t, 2, obs.collected)
}

func TestHarvestSavesSnapshot(t *testing.T) {
	items := validItems(patA, 2)
	path := filepath.Join(t.TempDir(), "results.html")
	opts := testOptions()
	opts.SnapshotPath = path
	h := &Harvester{Opener: &fakeArchive{perPage: 2, items: items}, Layout: testLayout, Options: opts}

	_, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, 2)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Headline 2")
}

func TestScanLimitDoesNotOverflow(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		wanted int
		want   int
	}{
		{name: "derived", wanted: 10, want: 40},
		{name: "configured", limit: 7, wanted: 10, want: 7},
		{name: "largest exact", wanted: (math.MaxInt - 20) / 2, want: 2*((math.MaxInt-20)/2) + 20},
		{name: "half max", wanted: math.MaxInt/2 + 1, want: math.MaxInt},
		{name: "max", wanted: math.MaxInt, want: math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Options{ScanLimit: tt.limit}.scanLimit(tt.wanted))
		})
	}
}

func TestHarvestHugeWantedStopsAtEndOfList(t *testing.T) {
	for _, wanted := range []int{math.MaxInt/2 + 1, math.MaxInt} {
		items := validItems(patA, 5)
		h := &Harvester{Opener: &fakeArchive{perPage: 5, items: items}, Layout: testLayout, Options: testOptions()}

		res, err := h.Harvest(context.Background(), query.Build("", "x", "", types.AnyTime()), 0, wanted)
		require.NoError(t, err)
		assert.Len(t, res.Records, 5)
		assert.True(t, res.Exhausted)
		assert.True(t, res.Short())
	}
}
