package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published by the file service.
const (
	SubjectFileUploaded = "files.uploaded"
	SubjectFileDeleted  = "files.deleted"
	SubjectUserDeleted  = "users.deleted"
)

const eventStream = "file-events"

// eventStreamSubjects lists the subjects this service's stream owns.
// users.deleted is published by the account service on its own stream;
// this service only consumes it.
var eventStreamSubjects = []string{"files.*"}

// EventBus publishes and consumes file lifecycle events over NATS
// JetStream. A nil *EventBus is valid and drops publications, so the service
// keeps working when NATS is not configured.
type EventBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger zerolog.Logger
}

// ConnectEventBus connects to NATS, initializes JetStream and ensures the
// event stream exists.
func ConnectEventBus(url string, logger zerolog.Logger) (*EventBus, error) {
	opts := []nats.Option{
		nats.Name("lms-file-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	bus := &EventBus{nc: nc, js: js, logger: logger}
	if err := bus.ensureStream(); err != nil {
		// JetStream may be disabled server-side; core NATS still works.
		logger.Warn().Err(err).Msg("failed to ensure event stream")
	}
	return bus, nil
}

func (b *EventBus) ensureStream() error {
	if _, err := b.js.StreamInfo(eventStream); err == nil {
		return nil
	}
	_, err := b.js.AddStream(&nats.StreamConfig{
		Name:     eventStream,
		Subjects: eventStreamSubjects,
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Publish sends a durable event. Failures are the caller's to log; uploads
// never fail because an event did not go out.
func (b *EventBus) Publish(subject string, payload any) error {
	if b == nil || b.js == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = b.js.Publish(subject, data, nats.MsgId(uuid.New().String()))
	return err
}

// Subscribe creates a durable, manual-ack consumer on subject.
func (b *EventBus) Subscribe(subject, durableName string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if b == nil || b.js == nil {
		return nil, errors.New("event bus not connected")
	}
	sub, err := b.js.Subscribe(subject, handler, nats.Durable(durableName), nats.ManualAck())
	if err != nil {
		return nil, err
	}
	b.logger.Info().Str("subject", subject).Str("durable", durableName).Msg("nats subscription active")
	return sub, nil
}

func (b *EventBus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}
