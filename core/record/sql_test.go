package record_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/integration/database/sqlite"
)

func TestSQLDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, sqlite.Config{Path: ":memory:", BusyTimeout: 1000})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.Migrate(ctx, db, record.Migrations(), nil))

	dir := record.NewSQLDirectory(db)

	recs, err := dir.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	seed := record.DefaultSeed()
	require.NoError(t, dir.Import(ctx, seed))

	recs, err = dir.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, len(seed))
	for i := range seed {
		assert.Equal(t, seed[i].Identity, recs[i].Identity, "directory order is preserved")
		assert.Equal(t, seed[i].Scores, recs[i].Scores)
		assert.Equal(t, seed[i].Test, recs[i].Test)
		assert.Equal(t, seed[i].ArtifactRef, recs[i].ArtifactRef)
	}

	rec, ok, err := record.FindByCredentials(ctx, dir, seed[1].Identity, seed[1].Secret)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, seed[1].DisplayName, rec.DisplayName)

	t.Run("import rejects invalid records and keeps content", func(t *testing.T) {
		err := dir.Import(ctx, []record.Record{seed[0], seed[0]})
		assert.ErrorIs(t, err, record.ErrDuplicateIdentity)

		recs, err := dir.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, recs, len(seed))
	})

	t.Run("re-import replaces content", func(t *testing.T) {
		require.NoError(t, dir.Import(ctx, seed[:1]))
		recs, err := dir.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, seed[0].Identity, recs[0].Identity)
	})
}
