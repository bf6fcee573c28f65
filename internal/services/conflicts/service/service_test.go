package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/modkit/repokit"
	perr "peacekeeper/internal/platform/errors"
	ptime "peacekeeper/internal/platform/time"
	"peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/conflicts/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	err       error
	nextID    int64
	conflicts []domain.ConflictInput
	mediated  []domain.MediationInput
	marked    map[int64]string
	resolved  map[int64]time.Time
	pairs     [][2]string
	flagged   []bool
	last      *time.Time
	records   []domain.Record
	limit     int
	touched   []time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{marked: map[int64]string{}, resolved: map[int64]time.Time{}}
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return f.err }

func (f *fakeRepo) InsertConflict(_ context.Context, in domain.ConflictInput) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	f.conflicts = append(f.conflicts, in)
	return f.nextID, nil
}

func (f *fakeRepo) InsertMediation(_ context.Context, in domain.MediationInput) error {
	if f.err != nil {
		return f.err
	}
	f.mediated = append(f.mediated, in)
	return nil
}

func (f *fakeRepo) MarkTriggered(_ context.Context, id int64, msg string) error {
	if f.err != nil {
		return f.err
	}
	if id > f.nextID {
		return perr.ErrNotFound
	}
	f.marked[id] = msg
	return nil
}

func (f *fakeRepo) TouchOpen(_ context.Context, channelID string, at time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.touched = append(f.touched, at)
	if f.nextID == 0 {
		return 0, nil
	}
	return f.nextID, nil
}

func (f *fakeRepo) LastDelivered(context.Context, string) (*time.Time, error) { return f.last, f.err }

func (f *fakeRepo) UpsertInteraction(_ context.Context, a, b, _ string, inConflict bool, _ time.Time) error {
	f.pairs = append(f.pairs, [2]string{a, b})
	f.flagged = append(f.flagged, inConflict)
	return f.err
}

func (f *fakeRepo) Resolve(_ context.Context, id int64, at time.Time) error {
	if id > f.nextID {
		return perr.ErrNotFound
	}
	if _, ok := f.resolved[id]; !ok {
		f.resolved[id] = at
	}
	return f.err
}

func (f *fakeRepo) Recent(_ context.Context, _ string, limit int) ([]domain.Record, error) {
	f.limit = limit
	return f.records, f.err
}

type fakeTag struct{}

func (fakeTag) String() string      { return "SET" }
func (fakeTag) RowsAffected() int64 { return 0 }

// fakeTx runs fn inline and records every Exec
type fakeTx struct {
	repokit.TxRunner
	execs []string
	txs   int
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (repokit.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return fakeTag{}, nil
}

func (t *fakeTx) Tx(_ context.Context, fn func(repokit.Queryer) error) error {
	t.txs++
	return fn(t)
}

type fakeEvents struct {
	got    []domain.DetectionEvent
	err    error
	schema int
}

func (f *fakeEvents) EnsureSchema(context.Context) error { f.schema++; return f.err }

func (f *fakeEvents) Insert(_ context.Context, evs ...domain.DetectionEvent) error {
	f.got = append(f.got, evs...)
	return f.err
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSvc(f *fakeRepo, ev EventWriter) (*Service, *fakeTx) {
	tx := &fakeTx{}
	b := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return f })
	clock := ptime.NewFake(t0)
	return New(tx, b, ev, Options{StatementTimeout: 2 * time.Second, Clock: clock.Now}), tx
}

func TestRecordConflict(t *testing.T) {
	f := newFakeRepo()
	s, tx := newSvc(f, nil)

	id, err := s.RecordConflict(context.Background(), domain.ConflictInput{
		ChannelID:  "c1",
		Confidence: 0.8,
		Reasons:    conflict.NewReasons(conflict.HostileLanguage),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	require.Len(t, f.conflicts, 1)
	assert.Equal(t, t0, f.conflicts[0].DetectedAt, "missing time is filled from the clock")
	assert.NotNil(t, f.conflicts[0].Participants)

	assert.Equal(t, 1, tx.txs)
	require.Len(t, tx.execs, 1)
	assert.Equal(t, "SET LOCAL statement_timeout = 2000", tx.execs[0])
}

func TestRecordConflict_RequiresChannel(t *testing.T) {
	s, _ := newSvc(newFakeRepo(), nil)
	_, err := s.RecordConflict(context.Background(), domain.ConflictInput{ChannelID: "  "})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}

func TestRecordMediation(t *testing.T) {
	f := newFakeRepo()
	s, _ := newSvc(f, nil)

	err := s.RecordMediation(context.Background(), domain.MediationInput{ChannelID: "c1", Text: "hi"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument), "zero conflict id is rejected")

	require.NoError(t, s.RecordMediation(context.Background(), domain.MediationInput{
		ConflictID: 3, ChannelID: "c1", Text: "hi", Delivered: true,
	}))
	require.Len(t, f.mediated, 1)
	assert.True(t, f.mediated[0].Delivered)
}

func TestMarkAndResolve_NotFound(t *testing.T) {
	f := newFakeRepo()
	s, _ := newSvc(f, nil)
	ctx := context.Background()

	err := s.MarkMediationTriggered(ctx, 9, "m1")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	err = s.Resolve(ctx, 9)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	id, err := s.RecordConflict(ctx, domain.ConflictInput{ChannelID: "c1"})
	require.NoError(t, err)
	require.NoError(t, s.MarkMediationTriggered(ctx, id, "m1"))
	assert.Equal(t, "m1", f.marked[id])
	require.NoError(t, s.Resolve(ctx, id))
	assert.Equal(t, t0, f.resolved[id])
}

func TestLastMediationAt(t *testing.T) {
	f := newFakeRepo()
	s, _ := newSvc(f, nil)

	_, ok, err := s.LastMediationAt(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := t0.Add(-time.Minute)
	f.last = &at
	got, ok, err := s.LastMediationAt(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at, got)

	f.err = errors.New("boom")
	_, _, err = s.LastMediationAt(context.Background(), "c1")
	assert.True(t, perr.Retryable(err))
}

func TestUpdateInteraction_NormalisesPair(t *testing.T) {
	f := newFakeRepo()
	s, _ := newSvc(f, nil)
	ctx := context.Background()

	require.NoError(t, s.UpdateInteraction(ctx, "zed", "amy", "c1", true))
	require.NoError(t, s.UpdateInteraction(ctx, "amy", "zed", "c1", false))
	require.NoError(t, s.UpdateInteraction(ctx, "amy", "amy", "c1", true))
	require.NoError(t, s.UpdateInteraction(ctx, "", "amy", "c1", true))

	assert.Equal(t, [][2]string{{"amy", "zed"}, {"amy", "zed"}}, f.pairs)
	assert.Equal(t, []bool{true, false}, f.flagged)
}

func TestRecent_ClampsAndOrdersReasons(t *testing.T) {
	f := newFakeRepo()
	f.records = []domain.Record{{ID: 1, Reasons: []string{"zeta", "escalating_tension", "hostile_language", "rapid_exchange"}}}
	s, _ := newSvc(f, nil)

	out, err := s.Recent(context.Background(), "c1", 0)
	require.NoError(t, err)
	assert.Equal(t, 20, f.limit)
	assert.Equal(t, []string{"rapid_exchange", "hostile_language", "escalating_tension", "zeta"}, out[0].Reasons)

	_, err = s.Recent(context.Background(), "c1", 10_000)
	require.NoError(t, err)
	assert.Equal(t, MaxRecent, f.limit)
}

func TestTouchConflict(t *testing.T) {
	f := newFakeRepo()
	clock := ptime.NewFake(t0)
	b := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return f })
	s := New(&fakeTx{}, b, nil, Options{Clock: clock.Now})

	require.NoError(t, s.TouchConflict(context.Background(), "c1"), "nothing open is fine")

	_, err := s.RecordConflict(context.Background(), domain.ConflictInput{ChannelID: "c1", Confidence: 0.6})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	require.NoError(t, s.TouchConflict(context.Background(), "c1"))
	require.Len(t, f.touched, 2)
	assert.Equal(t, clock.Now().UTC(), f.touched[1])

	f.err = errors.New("conn reset")
	assert.Error(t, s.TouchConflict(context.Background(), "c1"))
}

func TestRecord_Analytics(t *testing.T) {
	ev := &fakeEvents{}
	s, _ := newSvc(newFakeRepo(), ev)

	require.NoError(t, s.Record(context.Background(), domain.DetectionEvent{ChannelID: "c1", Outcome: domain.OutcomeCalm}))
	require.Len(t, ev.got, 1)
	assert.Equal(t, t0, ev.got[0].At)

	ev.err = errors.New("ch down")
	err := s.Record(context.Background(), domain.DetectionEvent{ChannelID: "c1"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))

	bare, _ := newSvc(newFakeRepo(), nil)
	assert.NoError(t, bare.Record(context.Background(), domain.DetectionEvent{ChannelID: "c1"}))
}

func TestEnsureSchema(t *testing.T) {
	ev := &fakeEvents{}
	s, _ := newSvc(newFakeRepo(), ev)
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.Equal(t, 1, ev.schema)

	f := newFakeRepo()
	f.err = errors.New("denied")
	s, _ = newSvc(f, nil)
	assert.Error(t, s.EnsureSchema(context.Background()))
}

func TestNew_PanicsOnNil(t *testing.T) {
	b := repokit.BindFunc[repo.Storage](func(repokit.Queryer) repo.Storage { return nil })
	assert.Panics(t, func() { New(nil, b, nil, Options{}) })
	assert.Panics(t, func() { New(&fakeTx{}, nil, nil, Options{}) })
}
