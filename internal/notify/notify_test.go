package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/testutil"
	"github.com/omar-ramo/yawm/pkg/pubsub"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestDispatcher_DeliversToStoreAndBus(t *testing.T) {
	db := testutil.NewDB(t)
	ann := testutil.Profile(t, db, "ann")
	bob := testutil.Profile(t, db, "bob")
	repo := repository.NewGormNotificationRepository(db)

	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, "notifications:"+ann.ID, mock.MatchedBy(func(e *pubsub.Event) bool {
		var msg Message
		return e.Type == "followed" && e.UnmarshalPayload(&msg) == nil && msg.ActorID == bob.ID && msg.ID != ""
	})).Return(nil)

	d := NewDispatcher(NewStoreSink(repo), NewBusSink(pub, "notifications"))
	d.Emit(context.Background(), &domain.Notification{
		RecipientID: ann.ID,
		ActorID:     bob.ID,
		Verb:        domain.VerbFollowed,
		TargetType:  domain.TargetProfile,
		TargetID:    ann.ID,
	})

	n, err := repo.CountUnread(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	pub.AssertExpectations(t)
}

func TestDispatcher_SuppressesSelf(t *testing.T) {
	pub := new(mockPublisher)
	d := NewDispatcher(NewBusSink(pub, "notifications"))

	d.Emit(context.Background(), &domain.Notification{RecipientID: "p1", ActorID: "p1", Verb: domain.VerbLiked})

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_SinkFailureDoesNotStopOthers(t *testing.T) {
	failing := new(mockPublisher)
	failing.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	working := new(mockPublisher)
	working.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(NewBusSink(failing, "a"), NewBusSink(working, "b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Emit(ctx, &domain.Notification{RecipientID: "p1", ActorID: "p2", Verb: domain.VerbLiked})

	failing.AssertExpectations(t)
	working.AssertExpectations(t)
}
