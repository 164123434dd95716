package model

import "time"

type DispatchStatus string

const (
	DispatchSent   DispatchStatus = "sent"
	DispatchFailed DispatchStatus = "failed"
)

// Dispatch records one document sent (or attempted) to the signature webhook.
type Dispatch struct {
	ID           string         `json:"id"`
	StudentCode  int64          `json:"student_code"`
	StudentName  string         `json:"student_name"`
	GuardianName string         `json:"guardian_name"`
	TemplateID   string         `json:"template_id"`
	Status       DispatchStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	StoragePath  string         `json:"storage_path,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
