package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJournal_RollbackRunsInReverseOrder(t *testing.T) {
	ctx := context.Background()
	journal := NewJournal()

	var order []int
	journal.Record(func(context.Context) { order = append(order, 1) })
	journal.Record(func(context.Context) { order = append(order, 2) })
	journal.Record(func(context.Context) { order = append(order, 3) })

	journal.Rollback(ctx)

	require.Equal(t, []int{3, 2, 1}, order)
}

func TestJournal_RollbackIsOneShot(t *testing.T) {
	ctx := context.Background()
	journal := NewJournal()

	calls := 0
	journal.Record(func(context.Context) { calls++ })

	journal.Rollback(ctx)
	journal.Rollback(ctx)

	require.Equal(t, 1, calls)
}

func TestJournalFrom(t *testing.T) {
	ctx := context.Background()

	_, ok := JournalFrom(ctx)
	require.False(t, ok)

	journal := NewJournal()
	ctx = WithJournal(ctx, journal)

	got, ok := JournalFrom(ctx)
	require.True(t, ok)
	require.Same(t, journal, got)

	// Detach скрывает журнал от нижележащих вызовов
	detached := DetachJournal(ctx)
	_, ok = JournalFrom(detached)
	require.False(t, ok)
}
