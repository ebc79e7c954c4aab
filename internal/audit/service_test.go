package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	inserted  []Entry
	insertErr error
	listErr   error
	total     int
}

func (f *fakeRepo) Insert(_ context.Context, e Entry) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, e)
	return int64(len(f.inserted)), nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	n := filter.Limit
	if n > len(f.inserted) {
		n = len(f.inserted)
	}
	return f.inserted[:n], nil
}

func (f *fakeRepo) Count(_ context.Context, _ ListFilter) (int, error) {
	return f.total, nil
}

func newTestService(repo *fakeRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecordGeneratesKeyAndTimestamp(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	err := svc.Record(context.Background(), Entry{
		MerchantID: uuid.New(),
		PayrunID:   uuid.New(),
		Actor:      "user-1",
		Action:     ActionSave,
	})
	require.NoError(t, err)
	require.Len(t, repo.inserted, 1)
	require.NotEqual(t, uuid.Nil, repo.inserted[0].Key)
	require.False(t, repo.inserted[0].OccurredAt.IsZero())
}

func TestRecordKeepsCallerKey(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)
	key := uuid.New()

	err := svc.Record(context.Background(), Entry{Key: key, Action: ActionAuthorize})
	require.NoError(t, err)
	require.Equal(t, key, repo.inserted[0].Key)
}

func TestRecordSwallowsDuplicateKey(t *testing.T) {
	repo := &fakeRepo{insertErr: ErrDuplicateKey}
	svc := newTestService(repo)

	err := svc.Record(context.Background(), Entry{Key: uuid.New(), Action: ActionAuthorize})
	require.NoError(t, err)
}

func TestRecordPropagatesOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &fakeRepo{insertErr: boom}
	svc := newTestService(repo)

	err := svc.Record(context.Background(), Entry{Action: ActionSave})
	require.ErrorIs(t, err, boom)
}

func TestListClampsLimitAndReturnsTotal(t *testing.T) {
	repo := &fakeRepo{total: 120}
	svc := newTestService(repo)
	for i := 0; i < 60; i++ {
		require.NoError(t, svc.Record(context.Background(), Entry{Action: ActionSave}))
	}

	entries, total, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 50)
	require.Equal(t, 120, total)

	entries, _, err = svc.List(context.Background(), ListFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, entries, 50)

	entries, _, err = svc.List(context.Background(), ListFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 10)
}

func TestListPropagatesRepoError(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("query timeout")}
	svc := newTestService(repo)

	_, _, err := svc.List(context.Background(), ListFilter{})
	require.Error(t, err)
}
