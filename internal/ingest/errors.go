package ingest

import "errors"

// NoDataMessage is shown when a spreadsheet yields zero records.
const NoDataMessage = "No data found in the Excel file"

// FallbackMessage is shown when a failure carries no message of its own.
const FallbackMessage = "Failed to upload file"

// SuccessMessage is shown after an upload is stored.
const SuccessMessage = "File uploaded successfully!"

// ErrIngestInProgress is returned while another ingestion is still running.
var ErrIngestInProgress = errors.New("an upload is already in progress")

// DecodeError indicates the spreadsheet decoded to zero records.
type DecodeError struct {
	Filename string
}

func (e *DecodeError) Error() string {
	return NoDataMessage
}

// IngestError wraps any other decode failure.
type IngestError struct {
	Filename string
	Err      error
}

func (e *IngestError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return FallbackMessage
	}
	return e.Err.Error()
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// StatusFor converts an ingestion outcome into the user-visible banner.
func StatusFor(err error) Status {
	if err == nil {
		return Status{Type: StatusSuccess, Message: SuccessMessage}
	}
	msg := err.Error()
	if msg == "" {
		msg = FallbackMessage
	}
	return Status{Type: StatusError, Message: msg}
}
