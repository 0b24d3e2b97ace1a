package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/lifecycle"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
	"github.com/facilidevis/facilidevis/internal/store/gormstore"
	"github.com/facilidevis/facilidevis/internal/store/storetest"
)

type fixture struct {
	store  *gormstore.Store
	engine *lifecycle.Engine
	owner  *models.User
	client *models.Client
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := storetest.NewGorm(t)
	f := &fixture{store: s, clock: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	f.engine = lifecycle.NewEngine(s, logging.Discard())
	f.engine.SetClock(func() time.Time { return f.clock })
	f.owner = storetest.SeedUser(t, s, "artisan@example.fr")
	f.client = storetest.SeedClient(t, s, f.owner.ID)
	return f
}

func (f *fixture) quote(t *testing.T, status models.QuoteStatus) *models.Quote {
	return storetest.SeedQuote(t, f.store, f.owner.ID, f.client.ID, status)
}

func (f *fixture) reload(t *testing.T, id string) *models.Quote {
	t.Helper()
	q, err := f.store.Quotes().GetByID(context.Background(), id, f.owner.ID)
	require.NoError(t, err)
	return q
}

func TestRecordDelivery_FirstSend(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusDraft)

	res, err := f.engine.RecordDelivery(context.Background(), lifecycle.Owned(q.ID, f.owner.ID))
	require.NoError(t, err)
	assert.True(t, res.Changed())

	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusSent, got.Status)
	require.NotNil(t, got.SentAt)
	require.NotNil(t, got.LastSentAt)
	assert.True(t, got.SentAt.Equal(*got.LastSentAt), "first send stamps both timestamps with the same instant")
	assert.True(t, got.SentAt.Equal(f.clock))
}

func TestRecordDelivery_ResendKeepsSentAt(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusDraft)
	ref := lifecycle.Owned(q.ID, f.owner.ID)
	first := f.clock

	_, err := f.engine.RecordDelivery(context.Background(), ref)
	require.NoError(t, err)

	f.clock = first.Add(48 * time.Hour)
	res, err := f.engine.RecordDelivery(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, res.Changed())

	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusSent, got.Status)
	assert.True(t, got.SentAt.Equal(first))
	assert.True(t, got.LastSentAt.Equal(f.clock))
}

func TestRecordDelivery_NeverRegresses(t *testing.T) {
	for _, status := range []models.QuoteStatus{
		models.QuoteStatusViewed, models.QuoteStatusReminded, models.QuoteStatusAccepted, models.QuoteStatusRefused,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			q := f.quote(t, status)

			_, err := f.engine.RecordDelivery(context.Background(), lifecycle.Owned(q.ID, f.owner.ID))
			require.NoError(t, err)

			got := f.reload(t, q.ID)
			assert.Equal(t, status, got.Status)
			require.NotNil(t, got.LastSentAt)
			assert.True(t, got.LastSentAt.Equal(f.clock))
		})
	}
}

func TestMarkViewed_Idempotent(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusSent)
	ref := lifecycle.Public(q.ID)
	firstView := f.clock

	res, err := f.engine.MarkViewed(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Apply, res.Decision)

	f.clock = firstView.Add(time.Hour)
	res, err = f.engine.MarkViewed(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.NoOp, res.Decision)

	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusViewed, got.Status)
	assert.True(t, got.ViewedAt.Equal(firstView))
	assert.Equal(t, int64(2), got.Version, "second view must not write")
}

func TestMarkViewed_LenientOnOtherStatuses(t *testing.T) {
	for _, status := range []models.QuoteStatus{
		models.QuoteStatusDraft, models.QuoteStatusReminded, models.QuoteStatusAccepted, models.QuoteStatusRefused,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			q := f.quote(t, status)

			res, err := f.engine.MarkViewed(context.Background(), lifecycle.Public(q.ID))
			require.NoError(t, err)
			assert.Equal(t, lifecycle.NoOp, res.Decision)
			got := f.reload(t, q.ID)
			assert.Equal(t, status, got.Status)
			assert.Nil(t, got.ViewedAt)
		})
	}
}

func TestMarkReminded(t *testing.T) {
	tests := []struct {
		from models.QuoteStatus
		want models.QuoteStatus
	}{
		{models.QuoteStatusDraft, models.QuoteStatusDraft},
		{models.QuoteStatusSent, models.QuoteStatusReminded},
		{models.QuoteStatusViewed, models.QuoteStatusReminded},
		{models.QuoteStatusReminded, models.QuoteStatusReminded},
		{models.QuoteStatusAccepted, models.QuoteStatusAccepted},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			f := newFixture(t)
			q := f.quote(t, tt.from)

			_, err := f.engine.MarkReminded(context.Background(), lifecycle.Owned(q.ID, f.owner.ID))
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.reload(t, q.ID).Status)
		})
	}
}

func TestAccept_WithSignature(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusSent)

	res, err := f.engine.Accept(context.Background(), lifecycle.Public(q.ID), &lifecycle.SignatureInput{
		ImageKey:  "signatures/" + q.ID + ".png",
		IPAddress: "203.0.113.5",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Quote.Signature)

	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusAccepted, got.Status)
	require.NotNil(t, got.AcceptedAt)
	require.NotNil(t, got.Signature)
	assert.Equal(t, q.ID, got.Signature.QuoteID)
	assert.Equal(t, "203.0.113.5", got.Signature.IPAddress)
	assert.True(t, got.Signature.SignedAt.Equal(*got.AcceptedAt))
}

func TestAccept_WithoutSignature(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusViewed)

	_, err := f.engine.Accept(context.Background(), lifecycle.Public(q.ID), nil)
	require.NoError(t, err)

	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusAccepted, got.Status)
	assert.Nil(t, got.Signature)
}

func TestAccept_DraftIsAllowed(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusDraft)

	_, err := f.engine.Accept(context.Background(), lifecycle.Public(q.ID), nil)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, f.reload(t, q.ID).Status)
}

func TestTerminalStatesReject(t *testing.T) {
	for _, status := range []models.QuoteStatus{models.QuoteStatusAccepted, models.QuoteStatusRefused} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			q := f.quote(t, status)
			ctx := context.Background()

			_, err := f.engine.Accept(ctx, lifecycle.Public(q.ID), &lifecycle.SignatureInput{ImageKey: "k", IPAddress: "203.0.113.5"})
			assert.ErrorIs(t, err, common.ErrInvalidTransition)
			_, err = f.engine.Refuse(ctx, lifecycle.Owned(q.ID, f.owner.ID))
			assert.ErrorIs(t, err, common.ErrInvalidTransition)

			got := f.reload(t, q.ID)
			assert.Equal(t, status, got.Status)
			assert.Nil(t, got.Signature, "rejected acceptance must not leave a signature")
		})
	}
}

func TestRefuse(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusReminded)

	_, err := f.engine.Refuse(context.Background(), lifecycle.Owned(q.ID, f.owner.ID))
	require.NoError(t, err)
	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusRefused, got.Status)
	require.NotNil(t, got.RefusedAt)
}

func TestOwnerMismatchFailsClosed(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusDraft)
	intruder := storetest.SeedUser(t, f.store, "intruder@example.fr")
	ref := lifecycle.Owned(q.ID, intruder.ID)
	ctx := context.Background()

	_, err := f.engine.RecordDelivery(ctx, ref)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.engine.Refuse(ctx, ref)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.engine.Accept(ctx, lifecycle.Public("no-such-quote"), nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got := f.reload(t, q.ID)
	assert.Equal(t, models.QuoteStatusDraft, got.Status)
	assert.Equal(t, int64(1), got.Version)
}

// racingStore lets a competing writer win the first UpdateStatus.
type racingStore struct {
	store.Store
	race func()
}

func (r *racingStore) Quotes() store.QuoteStore {
	return &racingQuotes{QuoteStore: r.Store.Quotes(), race: &r.race}
}

func (r *racingStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return r.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(&racingStore{Store: tx, race: r.race})
	})
}

type racingQuotes struct {
	store.QuoteStore
	race *func()
}

func (q *racingQuotes) UpdateStatus(ctx context.Context, id string, ownerID uint, v int64, p models.QuoteStatusPatch) error {
	if *q.race != nil {
		race := *q.race
		*q.race = nil
		race()
	}
	return q.QuoteStore.UpdateStatus(ctx, id, ownerID, v, p)
}

func TestVersionConflict_ReDecides(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusSent)
	ctx := context.Background()

	rs := &racingStore{Store: f.store}
	rs.race = func() {
		// The recipient accepts while the reminder job is about to write.
		now := f.clock
		require.NoError(t, f.store.Quotes().UpdateStatus(ctx, q.ID, f.owner.ID, 1,
			models.QuoteStatusPatch{Status: models.QuoteStatusAccepted, AcceptedAt: &now}))
	}
	engine := f.engine.In(rs)

	res, err := engine.MarkReminded(ctx, lifecycle.Owned(q.ID, f.owner.ID))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.NoOp, res.Decision, "second attempt sees accepted and backs off")
	assert.Equal(t, models.QuoteStatusAccepted, f.reload(t, q.ID).Status)
}

func TestVersionConflict_GivesUp(t *testing.T) {
	f := newFixture(t)
	q := f.quote(t, models.QuoteStatusSent)
	ctx := context.Background()

	engine := f.engine.In(&alwaysStale{Store: f.store})
	_, err := engine.MarkViewed(ctx, lifecycle.Public(q.ID))
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	assert.Equal(t, models.QuoteStatusSent, f.reload(t, q.ID).Status)
}

type alwaysStale struct{ store.Store }

func (a *alwaysStale) Quotes() store.QuoteStore { return staleQuotes{a.Store.Quotes()} }

type staleQuotes struct{ store.QuoteStore }

func (staleQuotes) UpdateStatus(context.Context, string, uint, int64, models.QuoteStatusPatch) error {
	return common.ErrVersionConflict
}
