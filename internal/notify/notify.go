package notify

import (
	"context"

	"github.com/omar-ramo/yawm/internal/domain"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
)

// Emitter records that an actor did something to a recipient's content.
type Emitter interface {
	Emit(ctx context.Context, n *domain.Notification)
}

// Sink delivers a notification to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n *domain.Notification) error
}

// Dispatcher fans a notification out to every sink. Delivery never fails the
// caller: errors are logged and dropped.
type Dispatcher struct {
	sinks []Sink
}

var _ Emitter = (*Dispatcher)(nil)

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Emit delivers n unless the actor is the recipient. Sinks run in order so
// the bus sees the id the store assigned.
func (d *Dispatcher) Emit(ctx context.Context, n *domain.Notification) {
	if n == nil || n.ActorID == n.RecipientID {
		return
	}

	// The mutation already committed; a cancelled request must not drop delivery.
	ctx = context.WithoutCancel(ctx)
	l := pkglog.Ctx(ctx)

	for _, s := range d.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			l.Warn().Err(err).
				Str("sink", s.Name()).
				Str(pkglog.FieldVerb, string(n.Verb)).
				Str(pkglog.FieldTargetID, n.TargetID).
				Msg("failed to deliver notification")
		}
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Emit(context.Context, *domain.Notification) {}
