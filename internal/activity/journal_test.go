package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndList(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, j.Record(ctx, Entry{ID: "a", Action: "transfer", Status: StatusConfirmed, Account: "0x1", TxHashes: []string{"0xh1"}, CreatedAt: base}))
	require.NoError(t, j.Record(ctx, Entry{ID: "b", Action: "multisend", Status: StatusFailed, Account: "0x1", TxHashes: []string{"0xh2", "0xh3"}, Error: "reverted", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, j.Record(ctx, Entry{ID: "c", Action: "mint", Status: StatusInvalid, CreatedAt: base.Add(2 * time.Minute)}))

	all, err := j.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	b := all[1]
	assert.Equal(t, []string{"0xh2", "0xh3"}, b.TxHashes)
	assert.Equal(t, "reverted", b.Error)
	assert.True(t, base.Add(time.Minute).Equal(b.CreatedAt))
	assert.Nil(t, all[0].TxHashes)
}

func TestListFilterAndLimit(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	for i, id := range []string{"1", "2", "3", "4"} {
		action := "burn"
		if i%2 == 0 {
			action = "stake"
		}
		require.NoError(t, j.Record(ctx, Entry{ID: id, Action: action, Status: StatusConfirmed, CreatedAt: time.UnixMilli(int64(1000 + i))}))
	}

	stakes, err := j.List(ctx, "stake", 10)
	require.NoError(t, err)
	require.Len(t, stakes, 2)
	assert.Equal(t, "3", stakes[0].ID)

	latest, err := j.List(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "4", latest[0].ID)
}

func TestDuplicateIDRejected(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	require.NoError(t, j.Record(ctx, Entry{ID: "x", Action: "pause", Status: StatusConfirmed}))
	assert.Error(t, j.Record(ctx, Entry{ID: "x", Action: "pause", Status: StatusConfirmed}))
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), Entry{ID: "keep", Action: "unpause", Status: StatusConfirmed}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep", entries[0].ID)
}
