package services

import (
	"strings"
	"testing"
)

func TestEventStreamOwnsOnlyFileSubjects(t *testing.T) {
	for _, subject := range eventStreamSubjects {
		if !strings.HasPrefix(subject, "files.") {
			t.Errorf("stream claims %q, which another service publishes", subject)
		}
	}

	// Every subject this service publishes must land in its own stream.
	for _, subject := range []string{SubjectFileUploaded, SubjectFileDeleted} {
		if !strings.HasPrefix(subject, "files.") {
			t.Errorf("published subject %q is outside the stream", subject)
		}
	}
	if strings.HasPrefix(SubjectUserDeleted, "files.") {
		t.Errorf("consumed subject %q must not collide with the stream", SubjectUserDeleted)
	}
}

func TestNilEventBusIsInert(t *testing.T) {
	var bus *EventBus

	if err := bus.Publish(SubjectFileUploaded, map[string]any{"file_id": "f1"}); err != nil {
		t.Errorf("nil bus publish: %v", err)
	}
	if _, err := bus.Subscribe(SubjectUserDeleted, "durable", nil); err == nil {
		t.Error("nil bus subscribe must report not connected")
	}
	bus.Close()
}
