package models

// Action is the kind of a usage history entry.
type Action string

const (
	ActionBypass           Action = "bypass"
	ActionBypassWithReason Action = "bypass_with_reason"
	ActionDisabled         Action = "disabled"
)

func (a Action) Valid() bool {
	switch a {
	case ActionBypass, ActionBypassWithReason, ActionDisabled:
		return true
	}
	return false
}

// HistoryEntry is a stats-oriented event kept for 24 hours.
type HistoryEntry struct {
	Timestamp int64     `json:"timestamp"`
	Action    Action    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	Platform  Platform  `json:"platform,omitempty"`
	BlockType BlockType `json:"blockType,omitempty"`
}

// BypassReason is the accountability trail entry kept for 30 days.
type BypassReason struct {
	Timestamp int64     `json:"timestamp"`
	Date      string    `json:"date"`
	Platform  Platform  `json:"platform"`
	Reason    string    `json:"reason"`
	BlockType BlockType `json:"blockType"`
}
