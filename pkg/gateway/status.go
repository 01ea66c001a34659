package gateway

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// statusTable maps provider vocabulary onto local order statuses. Keys are
// lower-case.
var statusTable = map[string]enums.OrderStatus{
	"approved":    enums.OrderStatusPaid,
	"paid":        enums.OrderStatusPaid,
	"pending":     enums.OrderStatusPending,
	"in_analysis": enums.OrderStatusPending,
	"canceled":    enums.OrderStatusCancelled,
	"cancelled":   enums.OrderStatusCancelled,
	"aborted":     enums.OrderStatusCancelled,
	"refunded":    enums.OrderStatusShipped,
	"shipped":     enums.OrderStatusShipped,
	"delivered":   enums.OrderStatusDelivered,
}

// MapStatus translates a provider status. Unknown values map to PENDING.
func MapStatus(providerStatus string) enums.OrderStatus {
	if status, ok := statusTable[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return status
	}
	return enums.OrderStatusPending
}
