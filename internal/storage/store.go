package storage

import (
	"errors"
	"io"
	"time"
)

// Job status values recorded in metadata.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNotFound is returned for unknown or expired file IDs.
var ErrNotFound = errors.New("file not found")

// Metadata is the per-job record persisted beside the stored files so it
// survives restarts. One record covers both the upload and the result.
type Metadata struct {
	FileID        string    `json:"file_id"`
	OriginalName  string    `json:"original_filename"`
	UploadedName  string    `json:"uploaded_filename"`
	FromFormat    string    `json:"from_format"`
	ToFormat      string    `json:"to_format"`
	Quality       int       `json:"quality"`
	Status        string    `json:"status"`
	OutputName    string    `json:"output_filename,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	UploadTime    time.Time `json:"upload_time"`
	ConvertedTime time.Time `json:"conversion_time,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Store is the file lifecycle abstraction: upload storage, result storage,
// metadata persistence and age-based expiry. The disk backend is the only
// production implementation; the interface exists so tests can swap it.
type Store interface {
	// StoreUpload writes the upload stream under the file ID, keeping the
	// original filename inside a per-ID subdirectory.
	StoreUpload(fileID, name string, r io.Reader) (string, error)

	// ResultDir returns (and creates) the per-ID result directory.
	ResultDir(fileID string) (string, error)

	// ResultPath resolves the stored result file for a finished job.
	ResultPath(fileID string) (string, error)

	SaveMetadata(m *Metadata) error
	Metadata(fileID string) (*Metadata, error)
	List() ([]*Metadata, error)

	// Sweep deletes uploads, results and metadata older than the cutoff.
	// A record and its files are always removed together.
	Sweep(cutoff time.Time) (int, error)
}
