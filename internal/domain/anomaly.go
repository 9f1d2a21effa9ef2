package domain

import "time"

type AnomalyType string

const (
	// AnomalyTerminalConflict: the gateway reported a terminal status that
	// contradicts a terminal status already on record for the same ref_id.
	AnomalyTerminalConflict AnomalyType = "TERMINAL_CONFLICT"
	// AnomalyUnrecognizedResponse: the gateway answered with a payload that
	// does not carry a status we understand.
	AnomalyUnrecognizedResponse AnomalyType = "UNRECOGNIZED_RESPONSE"
)

// Anomaly is a persisted record of gateway behavior that the reconciler
// refused to act on. The stored transaction is left untouched; the anomaly
// row is what an operator reviews.
type Anomaly struct {
	ID             string      `json:"id"`
	Type           AnomalyType `json:"type"`
	RefID          string      `json:"ref_id"`
	StoredStatus   string      `json:"stored_status,omitempty"`
	ReportedStatus string      `json:"reported_status,omitempty"`
	Detail         string      `json:"detail"`
	DetectedAt     time.Time   `json:"detected_at"`
}
