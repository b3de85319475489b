package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ops/events"
)

// notifier publishes after commit. Failures are logged and dropped.
type notifier struct {
	pub events.Publisher
	log *logrus.Logger
}

func newNotifier(pub events.Publisher, log *logrus.Logger) notifier {
	if pub == nil {
		pub = events.Nop{}
	}
	return notifier{pub: pub, log: log}
}

func (n notifier) emit(ctx context.Context, evt events.Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	// request cancellation must not drop an event for a committed change
	if err := n.pub.Publish(context.WithoutCancel(ctx), evt); err != nil {
		n.log.WithError(err).WithField("event", evt.Type).Warn("failed to publish event")
	}
}
