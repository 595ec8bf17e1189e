package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine { return NewEngine(NewMemoryBackend()) }

func TestEngineInsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	require.NoError(t, e.Insert(ctx, "bookings", Record{"bookingID": "b1", "status": "PENDING"}))
	require.NoError(t, e.Insert(ctx, "bookings", Record{"bookingID": "b2", "status": "PENDING"}))

	rec, ok, err := e.FindOne(ctx, "bookings", Criteria{"status": "PENDING"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b1", rec["bookingID"], "first match in insertion order")

	_, ok, err = e.FindOne(ctx, "bookings", Criteria{"bookingID": "nope"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngineMissingTableIsEmpty(t *testing.T) {
	rows, err := newTestEngine().FindAll(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestEngineMatchingIsTypeExact(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	require.NoError(t, e.Insert(ctx, "transport", Record{"transportID": "t1", "seatsAvailable": 5}))

	_, ok, err := e.FindOne(ctx, "transport", Criteria{"seatsAvailable": 5})
	require.NoError(t, err)
	assert.True(t, ok, "int criteria matches stored JSON number")

	_, ok, err = e.FindOne(ctx, "transport", Criteria{"seatsAvailable": "5"})
	require.NoError(t, err)
	assert.False(t, ok, "string never matches a number")
}

func TestEngineUpdateAffectsAllMatches(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, e.Insert(ctx, "bookings", Record{"bookingID": id, "studentID": "s1", "status": "PENDING"}))
	}
	require.NoError(t, e.Insert(ctx, "bookings", Record{"bookingID": "d", "studentID": "s2", "status": "PENDING"}))

	n, err := e.Update(ctx, "bookings", Criteria{"studentID": "s1"}, Record{"status": "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := e.FindAll(ctx, "bookings")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "CANCELLED", rows[0]["status"])
	assert.Equal(t, "s1", rows[0]["studentID"], "merge is shallow and keeps other fields")
	assert.Equal(t, "PENDING", rows[3]["status"])

	n, err = e.Update(ctx, "bookings", Criteria{"studentID": "zz"}, Record{"status": "X"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngineDelete(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	require.NoError(t, e.Insert(ctx, "clubs", Record{"clubID": "c1"}))
	require.NoError(t, e.Insert(ctx, "clubs", Record{"clubID": "c2"}))

	n, err := e.Delete(ctx, "clubs", Criteria{"clubID": "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := e.FindAll(ctx, "clubs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c2", rows[0]["clubID"])
}

func TestEngineInsertCopiesRecord(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()
	rec := Record{"k": "v"}
	require.NoError(t, e.Insert(ctx, "t", rec))
	rec["k"] = "changed"

	got, ok, err := e.FindOne(ctx, "t", Criteria{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", got["k"])
}

func TestEngineExistsAndPut(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine()

	ok, err := e.Exists(ctx, "accommodations")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.Put(ctx, "accommodations", nil))
	ok, err = e.Exists(ctx, "accommodations")
	require.NoError(t, err)
	assert.True(t, ok, "an empty table still counts as written")
}

func TestEngineWritesThroughToBackend(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, NewEngine(b).Insert(ctx, "meals", Record{"mealID": "m1"}))

	// a fresh engine over the same backend sees the write
	rows, err := NewEngine(b).FindAll(ctx, "meals")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "m1", rows[0]["mealID"])
}

func TestToRecordFromRecord(t *testing.T) {
	type item struct {
		ID    string  `json:"id"`
		Price float64 `json:"price"`
	}
	r, err := ToRecord(item{ID: "x", Price: 12.5})
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "x", "price": 12.5}, r)

	back, err := FromRecord[item](r)
	require.NoError(t, err)
	assert.Equal(t, item{ID: "x", Price: 12.5}, back)

	_, err = ToRecord([]int{1})
	assert.Error(t, err)
}
