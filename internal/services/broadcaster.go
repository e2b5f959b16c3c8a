package services

import "bgaming-proxy/internal/models"

// Broadcaster receives ledger and session lifecycle events for the operator
// monitor feed.
type Broadcaster interface {
	BroadcastBalanceUpdate(playerID string, deltaCents, balanceCents int64)
	BroadcastSessionState(playerID, tokenInternal string, state models.SessionState)
}
