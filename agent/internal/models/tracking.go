package models

// MaxTrackedEvents caps both disable and enable event lists.
const MaxTrackedEvents = 100

type DisableEvent struct {
	Timestamp  int64 `json:"timestamp"`
	DetectedAt int64 `json:"detectedAt"`
}

type EnableEvent struct {
	Timestamp               int64 `json:"timestamp"`
	DisabledDurationMs      int64 `json:"disabledDurationMs"`
	DisabledDurationMinutes int64 `json:"disabledDurationMinutes"`
}

// ExtensionTrackingStats records inferred downtime of the guard.
type ExtensionTrackingStats struct {
	DisableCount          int            `json:"disableCount"`
	DisableEvents         []DisableEvent `json:"disableEvents"`
	EnableEvents          []EnableEvent  `json:"enableEvents"`
	TotalDisabledDuration int64          `json:"totalDisabledDuration"`
	LastActiveTimestamp   int64          `json:"lastActiveTimestamp"`
}
