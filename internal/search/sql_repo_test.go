package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/testutil"
)

func TestSQLRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSQLRepository(db, repository.NewGormDiaryRepository(db))
	ctx := context.Background()

	alice := testutil.Profile(t, db, "alice")
	bob := testutil.Profile(t, db, "bob")
	profiles := repository.NewGormProfileRepository(db)
	require.NoError(t, profiles.Update(ctx, bob.ID, map[string]interface{}{"description": "Loves ALICE's diaries"}))
	testutil.Profile(t, db, "carol")

	d1 := testutil.Diary(t, db, alice, "Morning walk")
	d2 := testutil.Diary(t, db, alice, "walking again")
	hidden := testutil.Diary(t, db, bob, "private walk", testutil.Private())

	n, err := repo.CountDiaries(ctx, domain.Anonymous, "WALK")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ids, err := repo.SearchDiaries(ctx, domain.Anonymous, "walk", 0, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{d2.ID, d1.ID}, ids)

	ids, err = repo.SearchDiaries(ctx, domain.Viewer{ProfileID: bob.ID}, "walk", 0, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{hidden.ID, d2.ID, d1.ID}, ids)

	n, err = repo.CountProfiles(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pids, err := repo.SearchProfiles(ctx, "alice", 0, 12)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, pids)

	n, err = repo.CountProfiles(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.CountProfiles(ctx, "%")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLRepository_FoldsNonASCII(t *testing.T) {
	db := testutil.NewDB(t)
	diaries := repository.NewGormDiaryRepository(db)
	profiles := repository.NewGormProfileRepository(db)
	repo := NewSQLRepository(db, diaries)
	ctx := context.Background()

	zofia := testutil.Profile(t, db, "zofia")
	require.NoError(t, profiles.Update(ctx, zofia.ID, map[string]interface{}{"name": "Łucja Świątek"}))
	d := testutil.Diary(t, db, zofia, "Über Tage")

	for _, q := range []string{"Über", "über", "ÜBER", "tage"} {
		ids, err := repo.SearchDiaries(ctx, domain.Anonymous, q, 0, 9)
		require.NoError(t, err)
		assert.Equal(t, []string{d.ID}, ids, q)
	}

	require.NoError(t, diaries.Update(ctx, d.ID, map[string]interface{}{"title": "Straße"}))
	ids, err := repo.SearchDiaries(ctx, domain.Anonymous, "STRASSE", 0, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID}, ids)

	for _, q := range []string{"łucja", "ŚWIĄTEK"} {
		pids, err := repo.SearchProfiles(ctx, q, 0, 12)
		require.NoError(t, err)
		assert.Equal(t, []string{zofia.ID}, pids, q)
	}
}

func TestBackfillSearchColumns(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSQLRepository(db, repository.NewGormDiaryRepository(db))
	ctx := context.Background()

	a := testutil.Profile(t, db, "ärger")
	d := testutil.Diary(t, db, a, "Öffnung")
	require.NoError(t, db.Exec("UPDATE diaries SET title_folded = NULL").Error)
	require.NoError(t, db.Exec("UPDATE profiles SET search_text = NULL").Error)

	n, err := repository.BackfillSearchColumns(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ids, err := repo.SearchDiaries(ctx, domain.Anonymous, "ÖFF", 0, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID}, ids)

	pids, err := repo.SearchProfiles(ctx, "ÄRGER", 0, 12)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, pids)
}
