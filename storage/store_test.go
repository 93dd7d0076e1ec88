package storage_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medline-loader/models"
	"medline-loader/storage"
	"medline-loader/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keywords(words ...string) []models.Keyword {
	out := make([]models.Keyword, len(words))
	for i, w := range words {
		out[i] = models.Keyword{Keyword: w, ContentAddress: models.ContentAddress{ContentHash: "h-" + w}}
	}
	return out
}

func TestBulkInsertOrIgnoreSkipsExistingKeys(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()

	first := keywords("a", "b")
	require.NoError(t, st.BulkInsertOrIgnore(ctx, &first))
	second := keywords("b", "c")
	require.NoError(t, st.BulkInsertOrIgnore(ctx, &second))

	assert.EqualValues(t, 3, testutil.Count(t, db, &models.Keyword{}))

	var empty []models.Keyword
	require.NoError(t, st.BulkInsertOrIgnore(ctx, &empty))
}

func TestBulkLookupChunksKeys(t *testing.T) {
	db := testutil.DB(t)
	st := storage.NewDB(db, 2, 0)
	ctx := context.Background()

	var words []string
	for i := 0; i < 7; i++ {
		words = append(words, fmt.Sprintf("kw%d", i))
	}
	rows := keywords(words...)
	require.NoError(t, st.BulkInsertOrIgnore(ctx, &rows))

	keys := []string{"h-kw0", "h-kw3", "h-kw6", "h-missing", "h-kw5"}
	var found []models.Keyword
	require.NoError(t, st.BulkLookup(ctx, &found, models.ContentHashColumn, keys))
	assert.Len(t, found, 4)

	var none []models.Keyword
	require.NoError(t, st.BulkLookup(ctx, &none, models.ContentHashColumn, nil))
	assert.Empty(t, none)

	var notSlice models.Keyword
	assert.Error(t, st.BulkLookup(ctx, &notSlice, models.ContentHashColumn, keys))
}

func TestInsertAndReturnIDIsStable(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()

	id1, err := st.InsertAndReturnID(ctx, &models.Citation{PMID: "30516287", ArticleID: 1})
	require.NoError(t, err)
	id2, err := st.InsertAndReturnID(ctx, &models.Citation{PMID: "30516287", ArticleID: 2})
	require.NoError(t, err)

	assert.NotZero(t, id1)
	assert.Equal(t, id1, id2)
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Citation{}))

	_, err = st.InsertAndReturnID(ctx, models.Citation{PMID: "1"})
	assert.Error(t, err)
}

func TestLookupOne(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.Descriptor{UI: "D006801", Name: "Humans"}).Error)

	var d models.Descriptor
	ok, err := st.LookupOne(ctx, &d, "ui", "D006801")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Humans", d.Name)

	var missing models.Descriptor
	ok, err = st.LookupOne(ctx, &missing, "ui", "D000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	st, db := testutil.Store(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.WithTransaction(ctx, func(tx storage.Store) error {
		rows := keywords("x", "y")
		if err := tx.BulkInsertOrIgnore(ctx, &rows); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 0, testutil.Count(t, db, &models.Keyword{}))

	err = st.WithTransaction(ctx, func(tx storage.Store) error {
		rows := keywords("x")
		return tx.BulkInsertOrIgnore(ctx, &rows)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.Count(t, db, &models.Keyword{}))
}

func TestCanceledContextFailsRoundTrip(t *testing.T) {
	st, _ := testutil.Store(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := keywords("late")
	err := st.BulkInsertOrIgnore(ctx, &rows)
	assert.ErrorIs(t, err, context.Canceled)
}
