package alert

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"fuelrecon-backend/internal/domain"
)

type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FirebaseSink pushes events to a per-station FCM topic, "<prefix>-<tenant>-<station>".
type FirebaseSink struct {
	client      messenger
	topicPrefix string
}

func NewFirebaseSink(ctx context.Context, credentialsFile, topicPrefix string) (*FirebaseSink, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FirebaseSink{client: client, topicPrefix: topicPrefix}, nil
}

func (s *FirebaseSink) Name() string { return "firebase" }

func (s *FirebaseSink) Topic(ev domain.Event) string {
	return fmt.Sprintf("%s-%d-%d", s.topicPrefix, ev.TenantID, ev.StationID)
}

func (s *FirebaseSink) Notify(ctx context.Context, ev domain.Event) error {
	data := map[string]string{
		"event_id": ev.ID.String(),
		"kind":     string(ev.Kind),
		"severity": string(ev.Severity),
	}
	for k, v := range ev.Attributes {
		data[k] = v
	}

	msg := &messaging.Message{
		Topic: s.Topic(ev),
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("%s (%s)", ev.Kind, ev.Severity),
			Body:  ev.Message,
		},
		Data: data,
	}
	if ev.Severity == domain.SeverityCritical {
		msg.Android = &messaging.AndroidConfig{Priority: "high"}
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("firebase send to %s: %w", msg.Topic, err)
	}
	return nil
}
