package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-gym/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-gym/internal/entity"
	"github.com/rocketscienceinc/tictactoe-gym/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoFactory func(t *testing.T) (context.Context, SessionRepository)

func redisRepo(t *testing.T) (context.Context, SessionRepository) {
	t.Helper()

	ctx, st := suite.New(t)
	return ctx, NewSessionRepository(st.Storage, time.Minute)
}

func memoryRepo(t *testing.T) (context.Context, SessionRepository) {
	t.Helper()

	return context.Background(), NewMemorySessionRepository()
}

func newSession(id string) *entity.Session {
	episode := entity.NewEpisode(entity.PlayerTwo, false)
	episode.Place(4, entity.PlayerOne)

	return &entity.Session{
		ID:        id,
		Seed:      42,
		Episode:   episode,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC),
	}
}

func TestSessionRepository(t *testing.T) {
	backends := map[string]repoFactory{
		"redis":  redisRepo,
		"memory": memoryRepo,
	}

	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			testSessionRepository(t, factory)
		})
	}
}

func testSessionRepository(t *testing.T, factory repoFactory) {
	t.Helper()

	t.Run("Save and GetByID round trip", func(t *testing.T) {
		ctx, repo := factory(t)

		// Given: a stored session
		session := newSession("abc")
		require.NoError(t, repo.Save(ctx, session))

		// When: loading it back
		loaded, err := repo.GetByID(ctx, "abc")

		// Then: the episode and metadata survive
		require.NoError(t, err)
		assert.Equal(t, session.Episode, loaded.Episode)
		assert.Equal(t, session.Seed, loaded.Seed)
		assert.True(t, session.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Save overwrites the previous episode", func(t *testing.T) {
		ctx, repo := factory(t)

		// Given: a stored session that is then reset
		session := newSession("abc")
		require.NoError(t, repo.Save(ctx, session))

		session.Episode = entity.NewEpisode(entity.PlayerOne, false)
		require.NoError(t, repo.Save(ctx, session))

		// When: loading it
		loaded, err := repo.GetByID(ctx, "abc")

		// Then: only the current episode is kept
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, loaded.Episode.Board)
		assert.Equal(t, entity.PlayerOne, loaded.Episode.Player)
	})

	t.Run("GetByID on a missing session", func(t *testing.T) {
		ctx, repo := factory(t)

		loaded, err := repo.GetByID(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Nil(t, loaded)
	})

	t.Run("DeleteByID removes the session", func(t *testing.T) {
		ctx, repo := factory(t)

		// Given: a stored session
		require.NoError(t, repo.Save(ctx, newSession("abc")))

		// When: deleting it
		require.NoError(t, repo.DeleteByID(ctx, "abc"))

		// Then: it can no longer be found, and a second delete fails
		_, err := repo.GetByID(ctx, "abc")
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.ErrorIs(t, repo.DeleteByID(ctx, "abc"), apperror.ErrSessionNotFound)
	})
}

func TestMemorySessionRepository_Copies(t *testing.T) {
	ctx, repo := memoryRepo(t)

	// Given: a stored session
	session := newSession("abc")
	require.NoError(t, repo.Save(ctx, session))

	// When: the caller mutates its copies
	session.Episode.Done = true
	loaded, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	loaded.Episode.Board[0] = entity.PlayerTwo

	// Then: the stored value is unaffected
	again, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, again.Episode.Done)
	assert.Equal(t, entity.Empty, again.Episode.Board[0])
}
