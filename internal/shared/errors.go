package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Step errors, one per pipeline stage
	ErrExtraction     = fmt.Errorf("extraction failed")
	ErrTransformation = fmt.Errorf("transformation failed")
	ErrPublish        = fmt.Errorf("publish failed")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrRateLimited      = fmt.Errorf("rate limited by API")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrSnapshotNotFound = fmt.Errorf("snapshot not found")

	// Registry errors
	ErrBatchNotFound   = fmt.Errorf("batch not found")
	ErrPointerNotFound = fmt.Errorf("latest pointer not found")
)
