package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"aguin/internal/amqp"
	"aguin/internal/log"
	"aguin/internal/metrics"
)

func TestNotifier_Publish(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	pub := &recordingPublisher{}
	n := NewNotifier(pub, m, log.Discard())

	calls := 0
	n.OnChange(func(context.Context) { calls++ })

	n.Publish(ctx, amqp.PaymentRecorded, 9)
	n.Changed(ctx)

	assert.Equal(t, 2, calls)
	if assert.Len(t, pub.events, 1) {
		assert.Equal(t, int64(9), pub.events[0].EntityID)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(string(amqp.PaymentRecorded), metrics.ResultOK)))
}

func TestNotifier_PublishFailureIsSwallowed(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	n := NewNotifier(&recordingPublisher{err: errors.New("broker down")}, m, log.Discard())

	assert.NotPanics(t, func() { n.Publish(context.Background(), amqp.ReservationCreated, 1) })
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(string(amqp.ReservationCreated), metrics.ResultError)))
}

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Changed(context.Background())
		n.Publish(context.Background(), amqp.ReservationCreated, 1)
	})
}
