package services

import (
	"errors"
	"fmt"
	"testing"

	"comicnest/internal/apperr"
	"comicnest/internal/models"
	"comicnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		current  models.ReactionState
		action   ReactionAction
		next     models.ReactionState
		likes    int
		dislikes int
	}{
		{models.ReactionNone, ActionLike, models.ReactionLiked, 1, 0},
		{models.ReactionLiked, ActionLike, models.ReactionNone, -1, 0},
		{models.ReactionDisliked, ActionLike, models.ReactionLiked, 1, -1},
		{models.ReactionNone, ActionDislike, models.ReactionDisliked, 0, 1},
		{models.ReactionDisliked, ActionDislike, models.ReactionNone, 0, -1},
		{models.ReactionLiked, ActionDislike, models.ReactionDisliked, -1, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q+%s", tt.current, tt.action), func(t *testing.T) {
			next, likes, dislikes := Transition(tt.current, tt.action)
			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.likes, likes)
			assert.Equal(t, tt.dislikes, dislikes)
		})
	}
}

// 任意序列下计数都等于 reaction 行数，且同一用户不会同时点赞和点踩
func TestToggleKeepsCountsConsistent(t *testing.T) {
	f := newFixture(t)
	carol := testutil.CreateUser(t, f.db, "carol")
	target := f.post(t, f.alice, "Hello")

	users := []*models.User{f.alice, f.bob, carol}
	actions := []ReactionAction{ActionLike, ActionDislike, ActionLike, ActionLike, ActionDislike, ActionDislike, ActionLike}

	for i, action := range actions {
		for j, u := range users {
			if (i+j)%2 == 0 {
				continue
			}
			_, err := f.svc.toggle(f.ctx, target.ID, u.ID, action)
			require.NoError(t, err)

			comment := testutil.Reload[models.Comment](t, f.db, target.ID)
			var liked, disliked int64
			require.NoError(t, f.db.Model(&models.CommentReaction{}).
				Where("comment_id = ? AND state = ?", target.ID, models.ReactionLiked).Count(&liked).Error)
			require.NoError(t, f.db.Model(&models.CommentReaction{}).
				Where("comment_id = ? AND state = ?", target.ID, models.ReactionDisliked).Count(&disliked).Error)
			assert.EqualValues(t, liked, comment.Likes)
			assert.EqualValues(t, disliked, comment.Dislikes)
		}
	}

	var perUser []struct {
		UserID uint
		N      int
	}
	require.NoError(t, f.db.Model(&models.CommentReaction{}).
		Select("user_id, COUNT(*) AS n").
		Where("comment_id = ?", target.ID).
		Group("user_id").
		Scan(&perUser).Error)
	for _, row := range perUser {
		assert.Equal(t, 1, row.N, "user %d has more than one reaction row", row.UserID)
	}
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	f := newFixture(t)
	target := f.post(t, f.alice, "Hello")

	first, err := f.svc.ToggleLike(f.ctx, target.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Likes)
	assert.Equal(t, models.ReactionLiked, first.State)

	second, err := f.svc.ToggleLike(f.ctx, target.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Likes)
	assert.Equal(t, models.ReactionNone, second.State)

	assert.EqualValues(t, 0, f.rowCount(t, &models.CommentReaction{}))
}

func TestToggleDislikeClearsLike(t *testing.T) {
	f := newFixture(t)
	root := f.post(t, f.alice, "Hello")
	hi := f.reply(t, f.bob, root, "Hi")

	liked, err := f.svc.ToggleLike(f.ctx, hi.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.Equal(t, 0, liked.Dislikes)

	disliked, err := f.svc.ToggleDislike(f.ctx, hi.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, disliked.Likes)
	assert.Equal(t, 1, disliked.Dislikes)
	assert.Equal(t, models.ReactionDisliked, disliked.State)

	node, err := f.svc.Thread(f.ctx, hi.ID)
	require.NoError(t, err)
	assert.Empty(t, node.LikedBy)
	assert.Equal(t, []uint{f.alice.ID}, node.DislikedBy)
}

func TestToggleUnknownComment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleLike(f.ctx, 9999, f.alice.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
