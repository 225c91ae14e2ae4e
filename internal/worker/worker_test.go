package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	aiMocks "contentapi/internal/ai/mocks"
	"contentapi/internal/events"
	"contentapi/internal/model"
	repoMocks "contentapi/internal/repository/mocks"
	storeMocks "contentapi/internal/storage/mocks"
)

type fixture struct {
	repo    *repoMocks.MockContentRepository
	backend *storeMocks.MockBackend
	gen     *aiMocks.MockGenerator
	bus     *events.Broadcaster
	worker  *TaggingWorker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    new(repoMocks.MockContentRepository),
		backend: new(storeMocks.MockBackend),
		gen:     new(aiMocks.MockGenerator),
		bus:     events.NewBroadcaster(),
	}
	t.Cleanup(f.bus.Close)

	w, err := New(f.repo, f.backend, f.gen, f.bus, time.Second, prometheus.NewRegistry())
	require.NoError(t, err)
	f.worker = w
	return f
}

func receiveEvent(t *testing.T, ch chan []byte) events.UpdateEvent {
	t.Helper()
	select {
	case msg := <-ch:
		var ev events.UpdateEvent
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for update event")
		return events.UpdateEvent{}
	}
}

func TestRunCycle_TagsFreshItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.bus.Subscribe()

	item := model.ContentItem{
		ID:               "item-1",
		OriginalFilename: "report.txt",
		StoragePath:      "2025/09/01/blob.txt",
		Status:           model.StatusUnprocessed,
		Version:          1,
		Metadata:         model.Metadata{},
	}
	generated := model.Metadata{"summary": "a greeting", "tags": []any{"hi"}, "sentiment": "positive"}

	f.repo.On("ListByStatus", ctx, model.StatusUnprocessed).Return([]model.ContentItem{item}, nil)
	f.backend.On("Path", "2025/09/01/blob.txt").Return("/data/blobs/2025/09/01/blob.txt")
	f.gen.On("GenerateMetadata", ctx, "/data/blobs/2025/09/01/blob.txt", "").Return(generated)
	f.repo.On("Update", ctx, mock.MatchedBy(func(it *model.ContentItem) bool {
		return it.ID == "item-1" &&
			it.Status == model.StatusTagged &&
			it.Metadata["summary"] == "a greeting" &&
			it.Metadata["sentiment"] == "positive"
	})).Return(&item, nil)

	f.worker.RunCycle(ctx)

	ev := receiveEvent(t, sub)
	assert.Equal(t, "update", ev.Type)
	assert.Equal(t, "item-1", ev.ItemID)
	f.repo.AssertExpectations(t)
	f.gen.AssertExpectations(t)
}

func TestRunCycle_MergePreservesUploadMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := model.ContentItem{
		ID:          "item-2",
		StoragePath: "p",
		Status:      model.StatusUnprocessed,
		Metadata:    model.Metadata{"owner": "alice", "sentiment": "unknown"},
	}
	generated := model.Metadata{"sentiment": "neutral", "tags": []any{"x"}}

	f.repo.On("ListByStatus", ctx, model.StatusUnprocessed).Return([]model.ContentItem{item}, nil)
	f.backend.On("Path", "p").Return("/abs/p")
	f.gen.On("GenerateMetadata", ctx, "/abs/p", "").Return(generated)

	var updated *model.ContentItem
	f.repo.On("Update", ctx, mock.AnythingOfType("*model.ContentItem")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(*model.ContentItem) }).
		Return(&item, nil)

	f.worker.RunCycle(ctx)

	require.NotNil(t, updated)
	assert.Equal(t, model.Metadata{
		"owner":     "alice",
		"sentiment": "neutral",
		"tags":      []any{"x"},
	}, updated.Metadata)
	assert.Equal(t, model.StatusTagged, updated.Status)
}

func TestRunCycle_OneFailureDoesNotHaltScan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.bus.Subscribe()

	bad := model.ContentItem{ID: "bad", StoragePath: "b", Status: model.StatusUnprocessed, Metadata: model.Metadata{}}
	good := model.ContentItem{ID: "good", StoragePath: "g", Status: model.StatusUnprocessed, Metadata: model.Metadata{}}

	f.repo.On("ListByStatus", ctx, model.StatusUnprocessed).Return([]model.ContentItem{bad, good}, nil)
	f.backend.On("Path", "b").Return("/abs/b")
	f.backend.On("Path", "g").Return("/abs/g")
	f.gen.On("GenerateMetadata", ctx, "/abs/b", "").Return(model.Metadata{"summary": "s"})
	f.gen.On("GenerateMetadata", ctx, "/abs/g", "").Return(model.Metadata{"summary": "s"})

	// Store write fails for the first item; it stays unprocessed.
	f.repo.On("Update", ctx, mock.MatchedBy(func(it *model.ContentItem) bool { return it.ID == "bad" })).
		Return(nil, errors.New("db write failed"))
	f.repo.On("Update", ctx, mock.MatchedBy(func(it *model.ContentItem) bool { return it.ID == "good" })).
		Return(&good, nil)

	f.worker.RunCycle(ctx)

	// Only the successful item produced an event.
	ev := receiveEvent(t, sub)
	assert.Equal(t, "good", ev.ItemID)
	select {
	case msg := <-sub:
		t.Fatalf("unexpected extra event: %s", msg)
	default:
	}
}

func TestRunCycle_ScanErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.repo.On("ListByStatus", ctx, model.StatusUnprocessed).Return(nil, errors.New("db down"))

	// Must not panic; the next poll cycle would retry.
	f.worker.RunCycle(ctx)
	f.repo.AssertExpectations(t)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	f.repo.On("ListByStatus", mock.Anything, model.StatusUnprocessed).Return([]model.ContentItem{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.worker.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestRunCycle_DegradedGenerationStillTags(t *testing.T) {
	// Generator failures produce a degraded payload, not an error: the item
	// still advances to tagged and stays inspectable.
	ctx := context.Background()
	f := newFixture(t)

	item := model.ContentItem{ID: "item-3", StoragePath: "p", Status: model.StatusUnprocessed, Metadata: model.Metadata{"owner": "bob"}}
	degraded := model.Metadata{"error": "model unreachable", "tags": []string{"processing-failed"}}

	f.repo.On("ListByStatus", ctx, model.StatusUnprocessed).Return([]model.ContentItem{item}, nil)
	f.backend.On("Path", "p").Return("/abs/p")
	f.gen.On("GenerateMetadata", ctx, "/abs/p", "").Return(degraded)
	f.repo.On("Update", ctx, mock.MatchedBy(func(it *model.ContentItem) bool {
		return it.Status == model.StatusTagged &&
			it.Metadata["error"] == "model unreachable" &&
			it.Metadata["owner"] == "bob"
	})).Return(&item, nil)

	f.worker.RunCycle(ctx)
	f.repo.AssertExpectations(t)
}
