package models

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v4"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebSocketClient represents an authenticated connection
type WebSocketClient struct {
	UserID      string
	Role        string
	GroupID     string
	DisplayName string
	MSISDN      string
	ConnID      string
}

// WebSocketClaims are the JWT claims accepted on websocket upgrade
type WebSocketClaims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	GroupID string `json:"group_id,omitempty"`
	Name    string `json:"name,omitempty"`
	MSISDN  string `json:"msisdn,omitempty"`
	jwt.RegisteredClaims
}

// LiveSnapshotMessage is pushed to live-feed websocket clients
type LiveSnapshotMessage struct {
	Scope   FeedScope       `json:"scope"`
	Target  string          `json:"target,omitempty"`
	Entries []LiveFeedEntry `json:"entries"`
	Entry   *LiveFeedEntry  `json:"entry"`
	Stats   ProximityStats  `json:"stats"`
	State   string          `json:"state"`
}
