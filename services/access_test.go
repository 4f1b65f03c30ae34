package services

import (
	"context"
	"testing"

	"photoshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFriendState(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	t.Run("none without edges", func(t *testing.T) {
		state, err := s.access.ResolveFriendState(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, FriendNone, state)
	})

	t.Run("sent and received are mirror images", func(t *testing.T) {
		require.NoError(t, s.store.SetEdge(ctx, models.RelationFriend, "carol", "dave", models.FriendPending))

		state, err := s.access.ResolveFriendState(ctx, "carol", "dave")
		require.NoError(t, err)
		assert.Equal(t, FriendSent, state)

		state, err = s.access.ResolveFriendState(ctx, "dave", "carol")
		require.NoError(t, err)
		assert.Equal(t, FriendReceived, state)
	})

	t.Run("accepted in one direction is mutual", func(t *testing.T) {
		require.NoError(t, s.store.SetEdge(ctx, models.RelationFriend, "erin", "frank", models.FriendAccepted))

		for _, pair := range [][2]string{{"erin", "frank"}, {"frank", "erin"}} {
			state, err := s.access.ResolveFriendState(ctx, pair[0], pair[1])
			require.NoError(t, err)
			assert.Equal(t, FriendAccepted, state)
		}
	})

	t.Run("accepted wins over pending", func(t *testing.T) {
		require.NoError(t, s.store.SetEdge(ctx, models.RelationFriend, "gina", "hank", models.FriendPending))
		require.NoError(t, s.store.SetEdge(ctx, models.RelationFriend, "hank", "gina", models.FriendAccepted))

		state, err := s.access.ResolveFriendState(ctx, "gina", "hank")
		require.NoError(t, err)
		assert.Equal(t, FriendAccepted, state)
	})

	t.Run("sent wins over received", func(t *testing.T) {
		require.NoError(t, s.store.SetEdge(ctx, models.RelationFriend, "ivan", "judy", models.FriendPending))
		require.NoError(t, s.store.SetEdge(ctx, models.RelationFriend, "judy", "ivan", models.FriendPending))

		state, err := s.access.ResolveFriendState(ctx, "ivan", "judy")
		require.NoError(t, err)
		assert.Equal(t, FriendSent, state)
	})

	t.Run("self is none without touching the store", func(t *testing.T) {
		store := &failingStore{}
		state, err := NewAccessEvaluator(store, nil, 0).ResolveFriendState(ctx, "alice", "alice")
		require.NoError(t, err)
		assert.Equal(t, FriendNone, state)
		assert.Zero(t, store.calls.Load())
	})
}

func TestCanViewAlbum(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	public := &models.Album{ID: "a1", OwnerID: "owner", Visibility: models.VisibilityPublic}
	private := &models.Album{ID: "a2", OwnerID: "owner", Visibility: models.VisibilityFriends}

	s.makeFriends(t, "friend", "owner")
	require.NoError(t, s.relations.SendFriendRequest(ctx, "pending", "owner"))
	_, err := s.relations.ToggleBlock(ctx, "owner", "blocked")
	require.NoError(t, err)
	_, err = s.relations.ToggleBlock(ctx, "blocker", "owner")
	require.NoError(t, err)

	tests := []struct {
		name   string
		viewer string
		album  *models.Album
		code   ErrorCode
	}{
		{"owner sees private album", "owner", private, ""},
		{"friend sees private album", "friend", private, ""},
		{"stranger sees public album", "stranger", public, ""},
		{"stranger gets not found for private album", "stranger", private, CodeNotFound},
		{"pending request is not enough", "pending", private, CodeNotFound},
		{"blocked by owner hides public album", "blocked", public, CodeNotFound},
		{"viewer who blocked owner does not see public album", "blocker", public, CodeNotFound},
		{"missing album", "stranger", nil, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.access.CanViewAlbum(ctx, tt.viewer, tt.album)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestCanUploadImage(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	s.makeFriends(t, "owner", "friend")
	album := &models.Album{ID: "album", OwnerID: "owner", Visibility: models.VisibilityPublic}

	t.Run("owner and friend under quota", func(t *testing.T) {
		evaluator := NewAccessEvaluator(s.store, stubCounter{count: 3}, DefaultUploadQuota)
		assert.NoError(t, evaluator.CanUploadImage(ctx, "owner", album))
		assert.NoError(t, evaluator.CanUploadImage(ctx, "friend", album))
	})

	t.Run("quota reached", func(t *testing.T) {
		evaluator := NewAccessEvaluator(s.store, stubCounter{count: 4}, DefaultUploadQuota)
		assert.Equal(t, CodeLimitExceeded, CodeOf(evaluator.CanUploadImage(ctx, "friend", album)))
		assert.Equal(t, CodeLimitExceeded, CodeOf(evaluator.CanUploadImage(ctx, "owner", album)))
	})

	t.Run("stranger is forbidden even on public album", func(t *testing.T) {
		evaluator := NewAccessEvaluator(s.store, stubCounter{}, DefaultUploadQuota)
		assert.Equal(t, CodeForbidden, CodeOf(evaluator.CanUploadImage(ctx, "stranger", album)))
	})

	t.Run("counter failure denies", func(t *testing.T) {
		evaluator := NewAccessEvaluator(s.store, stubCounter{err: errStoreDown}, DefaultUploadQuota)
		assert.Equal(t, CodeUnknown, CodeOf(evaluator.CanUploadImage(ctx, "owner", album)))
	})
}

func TestCanInteract(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.relations.ToggleBlock(ctx, "owner", "troll")
	require.NoError(t, err)

	assert.NoError(t, s.access.CanInteract(ctx, "owner", "owner"))
	// Дружба для взаимодействия не нужна
	assert.NoError(t, s.access.CanInteract(ctx, "stranger", "owner"))
	assert.Equal(t, CodeBlocked, CodeOf(s.access.CanInteract(ctx, "troll", "owner")))
	assert.Equal(t, CodeBlocked, CodeOf(s.access.CanInteract(ctx, "owner", "troll")))
}

func TestCanSendFriendRequest(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.relations.ToggleBlock(ctx, "bob", "carol")
	require.NoError(t, err)
	require.NoError(t, s.relations.SendFriendRequest(ctx, "alice", "dave"))
	s.makeFriends(t, "alice", "erin")

	tests := []struct {
		name     string
		from, to string
		code     ErrorCode
	}{
		{"stranger", "alice", "bob", ""},
		{"self", "alice", "alice", CodeInvalidInput},
		{"empty target", "alice", "", CodeInvalidInput},
		{"blocked by target", "carol", "bob", CodeBlocked},
		{"blocking target", "bob", "carol", CodeBlocked},
		{"duplicate sent", "alice", "dave", CodeInvalidInput},
		{"reverse of pending", "dave", "alice", CodeInvalidInput},
		{"already friends", "erin", "alice", CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(s.access.CanSendFriendRequest(ctx, tt.from, tt.to)))
		})
	}
}

func TestAccessFailsClosed(t *testing.T) {
	ctx := context.Background()
	evaluator := NewAccessEvaluator(&failingStore{}, stubCounter{}, DefaultUploadQuota)
	album := &models.Album{ID: "album", OwnerID: "owner", Visibility: models.VisibilityPublic}

	checks := map[string]error{
		"view":           evaluator.CanViewAlbum(ctx, "viewer", album),
		"upload":         evaluator.CanUploadImage(ctx, "viewer", album),
		"interact":       evaluator.CanInteract(ctx, "viewer", "owner"),
		"friend_request": evaluator.CanSendFriendRequest(ctx, "viewer", "owner"),
	}
	for name, err := range checks {
		t.Run(name, func(t *testing.T) {
			require.Error(t, err)
			assert.Equal(t, CodeUnknown, CodeOf(err))
			assert.ErrorIs(t, err, errStoreDown)
		})
	}
}

func TestSummary(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	s.makeFriends(t, "alice", "bob")
	_, err := s.relations.ToggleWatch(ctx, "bob", "alice")
	require.NoError(t, err)
	_, err = s.relations.ToggleMute(ctx, "alice", "bob")
	require.NoError(t, err)

	summary, err := s.access.Summary(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, FriendAccepted, summary.FriendState)
	assert.False(t, summary.Watching)
	assert.True(t, summary.WatchedBy)
	assert.True(t, summary.Muted)
	assert.False(t, summary.Blocked)
	assert.False(t, summary.BlockedBy)
}
