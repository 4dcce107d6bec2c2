package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/v1"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// WatchStoreHealth reports SERVING for the whole server and the admin service
// while the store answers pings. It returns when ctx is done.
func WatchStoreHealth(ctx context.Context, hs *health.Server, store pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		next := healthpb.HealthCheckResponse_SERVING
		if err := store.PingContext(ctx); err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
			if ctx.Err() == nil {
				logrus.WithError(err).Warn("Database ping failed")
			}
		}
		if next != last {
			hs.SetServingStatus("", next)
			hs.SetServingStatus(EmailHygieneServiceName, next)
			last = next
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
