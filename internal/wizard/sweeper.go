package wizard

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/metrics"
)

// StartSweeper abandons sessions that have been idle for longer than idle,
// checking every interval. It blocks until the context is cancelled, so it
// should be launched in a separate goroutine.
func (o *Orchestrator) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.logger.WithFields(logrus.Fields{
		"interval": interval.String(),
		"idle":     idle.String(),
	}).Info("Session sweeper started")

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Session sweeper stopped")
			return
		case <-ticker.C:
			o.Sweep(ctx, idle)
		}
	}
}

// Sweep abandons every session idle for longer than idle and returns how
// many were abandoned. A session touched while the sweep runs is kept.
func (o *Orchestrator) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := o.now().Add(-idle)

	swept := 0
	for _, s := range o.sessions.idleSince(cutoff) {
		if o.abandon(ctx, s, cutoff) {
			swept++
			metrics.SessionsSwept.Inc()
		}
	}
	if swept > 0 {
		o.logger.WithField("sessions", swept).Info("Idle wizard sessions swept")
	}
	return swept
}
