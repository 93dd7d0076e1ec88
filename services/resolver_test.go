package services

import (
	"context"
	"testing"

	"medline-loader/models"
	"medline-loader/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDeduplicatesWithinBatch(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()

	ids, err := ResolveAll(ctx, st, []models.Keyword{{Keyword: "a"}, {Keyword: "b"}, {Keyword: "a"}})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])
	assert.NotEqual(t, ids[0], ids[1])
	assert.EqualValues(t, 2, testutil.Count(t, db, &models.Keyword{}))
}

func TestResolveReusesStoredRows(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()

	first, err := ResolveAll(ctx, st, []models.Keyword{{Keyword: "a"}, {Keyword: "b"}})
	require.NoError(t, err)
	second, err := ResolveAll(ctx, st, []models.Keyword{{Keyword: "b"}, {Keyword: "c"}})
	require.NoError(t, err)

	assert.Equal(t, first[1], second[0])
	assert.NotContains(t, first, second[1])
	assert.EqualValues(t, 3, testutil.Count(t, db, &models.Keyword{}))
}

func TestResolveAuthorsByNaturalKey(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()

	same := func() models.Author {
		return models.Author{LastName: sp("Smith"), ForeName: sp("John"), Initials: sp("J")}
	}
	withEmail := same()
	withEmail.Email = sp("john@example.org")
	other := same()
	other.Suffix = sp("Jr")
	noInitials := same()
	noInitials.Initials = nil

	ids, err := ResolveAll(ctx, st, []models.Author{same(), withEmail, other, noInitials})
	require.NoError(t, err)

	assert.Equal(t, ids[0], ids[1], "email is not part of the key")
	assert.NotEqual(t, ids[0], ids[2])
	assert.NotEqual(t, ids[0], ids[3])
	assert.EqualValues(t, 3, testutil.Count(t, db, &models.Author{}))
}

func TestResolveLengthMismatchTouchesNoStore(t *testing.T) {
	rec := &recordingStore{}

	_, err := Resolve(context.Background(), rec, []models.Keyword{{Keyword: "a"}, {Keyword: "b"}}, []string{"h1"})
	require.ErrorIs(t, err, ErrInputContract)
	assert.Empty(t, rec.calls)
}

func TestResolveEmptyBatch(t *testing.T) {
	rec := &recordingStore{}

	ids, err := ResolveAll[models.Keyword](context.Background(), rec, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, rec.calls)
}

func TestResolveUsesOneInsertAndOneLookup(t *testing.T) {
	st, _ := testutil.Store(t)
	rec := &recordingStore{inner: st}

	_, err := ResolveAll(context.Background(), rec, []models.Keyword{{Keyword: "a"}, {Keyword: "b"}, {Keyword: "a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bulk_insert_or_ignore", "bulk_lookup"}, rec.calls)
}

func TestResolveReportsVanishedRows(t *testing.T) {
	// ohne inner findet der Lookup nichts
	rec := &recordingStore{}

	_, err := ResolveAll(context.Background(), rec, []models.Keyword{{Keyword: "a"}})
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveSparseKeepsPositions(t *testing.T) {
	st, _ := testutil.Store(t)
	words := []string{"a", "", "b"}

	ids, err := resolveSparse[models.Keyword](context.Background(), st, len(words), func(i int) (models.Keyword, bool) {
		return models.Keyword{Keyword: words[i]}, words[i] != ""
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.NotZero(t, ids[0])
	assert.Zero(t, ids[1])
	assert.NotZero(t, ids[2])
}
