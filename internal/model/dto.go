package model

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LocationUpdateRequest is one device location ping. Coordinates are
// pointers so that 0 (equator, Greenwich meridian) binds as a present
// value rather than tripping the required check.
type LocationUpdateRequest struct {
	Latitude  *float64  `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64  `json:"longitude" binding:"required,gte=-180,lte=180"`
	Timestamp time.Time `json:"timestamp"`
}

// FiredAlert describes one alert fired synchronously during a ping
type FiredAlert struct {
	AlertID   uuid.UUID `json:"alert_id"`
	StoreID   uuid.UUID `json:"store_id"`
	StoreName string    `json:"store_name"`
	Items     []string  `json:"items"`
}

// LocationUpdateResponse lists the alerts fired by this ping (empty if none)
type LocationUpdateResponse struct {
	Alerts []FiredAlert `json:"alerts"`
}

// RegisterDeviceRequest registers an FCM token for the current user
type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type"`
}

// AlertResponse is one entry of the notification log
type AlertResponse struct {
	Alert
	StoreName string   `json:"store_name,omitempty"`
	ItemNames []string `json:"item_names"`
}

// AlertLogResponse is the notification log with per-type totals
type AlertLogResponse struct {
	Alerts        []AlertResponse `json:"alerts"`
	GeoCount      int64           `json:"geo_count"`
	DeadlineCount int64           `json:"deadline_count"`
}

// WSEventType identifies the kind of realtime event
type WSEventType string

const (
	WSEventAlert WSEventType = "alert"
	WSEventPing  WSEventType = "ping"
)

// WSEvent is the envelope for the realtime alert feed
type WSEvent struct {
	Type    WSEventType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// AlertEvent is the websocket payload mirrored for every push
type AlertEvent struct {
	AlertID   uuid.UUID  `json:"alert_id"`
	Type      AlertType  `json:"alert_type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	ListID    *uuid.UUID `json:"list_id,omitempty"`
	Items     []string   `json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
