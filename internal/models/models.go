package models

import "time"

// Row is one record of the station dataset: a verbatim header-to-value
// mapping. Measurement fields stay strings; nothing is parsed.
type Row map[string]string

// Report statuses. "submitted" is the only status this service writes;
// transitions happen in the external review process.
const (
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
)

// Report is one user-submitted CSV report tracked in the database.
type Report struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	FileName    string    `json:"filename"`
	FilePath    string    `json:"path"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubmissionResult is the submission endpoint's 200 body. Store-level
// failures after the file has been persisted land in SubErrors instead of
// an HTTP error status.
type SubmissionResult struct {
	Report
	SubErrors []string        `json:"sub_errors,omitempty"`
	SubData   *SubmissionData `json:"sub_data,omitempty"`
}

// SubmissionData carries the bookkeeping outcome of a fully successful
// submission.
type SubmissionData struct {
	UserReportIDs []string `json:"user_report_ids"`
}

// StationsResponse is the body of the filtered station endpoints.
type StationsResponse struct {
	State    string `json:"state"`
	Count    int    `json:"count"`
	Stations []Row  `json:"stations"`
}

// HealthResponse reports liveness and dataset cache state.
type HealthResponse struct {
	Status        string `json:"status"`
	DatasetLoaded bool   `json:"dataset_loaded"`
	Rows          int    `json:"rows"`
}

// ErrorResponse is the uniform JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
