package gateway

import (
	"encoding/json"
	"errors"
	"strings"
)

// WebhookEvent is the notification body. Only the identifiers are trusted;
// state is always re-read through GetChargeDetails.
type WebhookEvent struct {
	ID    string `json:"id"`
	Event string `json:"event"`
	Data  struct {
		ID         string `json:"id"`
		CheckoutID string `json:"checkout_id"`
	} `json:"data"`
}

var errMissingChargeID = errors.New("webhook payload has no charge id")

// ParseWebhook decodes body and returns the event with its charge id.
func ParseWebhook(body []byte) (WebhookEvent, string, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookEvent{}, "", err
	}
	chargeID := strings.TrimSpace(event.Data.ID)
	if chargeID == "" {
		chargeID = strings.TrimSpace(event.Data.CheckoutID)
	}
	if chargeID == "" {
		return WebhookEvent{}, "", errMissingChargeID
	}
	return event, chargeID, nil
}
