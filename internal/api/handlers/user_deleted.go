package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

type userDeletedPayload struct {
	UserID string `json:"user_id"`
}

// HandleUserDeleted purges all files of a deleted account. Bad payloads are
// acked (retrying cannot fix them); purge failures are nak'd for redelivery.
func (h *Handler) HandleUserDeleted(msg *nats.Msg) {
	var payload userDeletedPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.UserID == "" {
		h.logger.Warn().Err(err).Msg("users.deleted: invalid payload")
		h.ack(msg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	deleted, err := h.files.PurgeUploader(ctx, payload.UserID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", payload.UserID).Msg("failed to purge user files")
		h.nak(msg)
		return
	}

	h.logger.Info().Str("user_id", payload.UserID).Int("deleted", deleted).Msg("purged user files")
	h.ack(msg)
}

func (h *Handler) ack(msg *nats.Msg) {
	if err := msg.Ack(); err != nil {
		h.logger.Warn().Err(err).Msg("failed to ack message")
	}
}

func (h *Handler) nak(msg *nats.Msg) {
	if err := msg.Nak(); err != nil {
		h.logger.Warn().Err(err).Msg("failed to nak message")
	}
}
