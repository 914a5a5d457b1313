package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/domain"
)

func TestNotificationService_ReadFlow(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")
	for _, name := range []string{"b", "c", "d"} {
		_, v := h.profile(t, name)
		_, err := h.identity.ToggleFollow(testCtx(), v, "ann")
		require.NoError(t, err)
	}

	page, err := h.inbox.List(testCtx(), ann, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Unread)
	assert.Equal(t, "d", page.Items[0].Actor.Username)

	require.NoError(t, h.inbox.MarkRead(testCtx(), ann, page.Items[0].ID))
	unread, err := h.inbox.UnreadCount(testCtx(), ann)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := h.inbox.MarkAllRead(testCtx(), ann)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = h.inbox.UnreadCount(testCtx(), ann)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationService_ScopedToRecipient(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")
	_, bob := h.profile(t, "bob")
	_, err := h.identity.ToggleFollow(testCtx(), bob, "ann")
	require.NoError(t, err)

	page, err := h.inbox.List(testCtx(), ann, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	assert.ErrorIs(t, h.inbox.MarkRead(testCtx(), bob, page.Items[0].ID), ErrNotFound)

	_, err = h.inbox.List(testCtx(), domain.Anonymous, 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
