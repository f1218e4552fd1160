package schema

import "time"

// TierAvailability records which local tiers came up during initialization.
type TierAvailability struct {
	Structured bool `json:"structured"`
	Fallback   bool `json:"fallback"`
}

// StructuredStatus represents the status of the structured local tier.
type StructuredStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalRecords    int       `json:"total_records"`
	LastUpdateTime  time.Time `json:"last_update_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// FallbackStatus represents the status of the fallback key/value tier.
type FallbackStatus struct {
	Path       string `json:"path"`
	Entries    int    `json:"entries"`
	UsedBytes  int64  `json:"used_bytes"`
	LimitBytes int64  `json:"limit_bytes"`
}

// RemoteStatus represents the reachability of the remote tier.
type RemoteStatus struct {
	Backend   string `json:"backend"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// ManagerStatus aggregates the status of every tier.
type ManagerStatus struct {
	Availability TierAvailability `json:"availability"`
	Remote       RemoteStatus     `json:"remote"`
	Structured   StructuredStatus `json:"structured"`
	Fallback     FallbackStatus   `json:"fallback"`
	QueryEntries int              `json:"query_entries"`
}
