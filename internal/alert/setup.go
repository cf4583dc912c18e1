package alert

import (
	"context"
	"time"

	"fuelrecon-backend/internal/config"
	"fuelrecon-backend/internal/logger"
	"fuelrecon-backend/internal/repository"
)

// NewFromConfig builds the sink chain and starts the dispatcher. External sinks are guarded;
// the log and store sinks are not.
func NewFromConfig(ctx context.Context, cfg config.AlertsConfig, alertRepo repository.AlertRepository) (*Dispatcher, error) {
	sinks := []Sink{LogSink{}}
	if cfg.Persist && alertRepo != nil {
		sinks = append(sinks, NewStoreSink(alertRepo))
	}

	guard := GuardOptions{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		RatePerSecond:    cfg.RatePerSecond,
		Burst:            cfg.Burst,
	}
	if cfg.SendGrid.Enabled {
		sg := NewSendGridSink(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, cfg.SendGrid.To)
		sinks = append(sinks, Guard(sg, guard))
		logger.Info("SendGrid alert sink enabled", "recipients", len(cfg.SendGrid.To))
	}
	if cfg.Firebase.Enabled {
		fb, err := NewFirebaseSink(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.TopicPrefix)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, Guard(fb, guard))
		logger.Info("Firebase alert sink enabled", "topicPrefix", cfg.Firebase.TopicPrefix)
	}

	return NewDispatcher(cfg.QueueSize, cfg.Workers, 10*time.Second, sinks...), nil
}
