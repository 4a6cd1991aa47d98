package models

import (
	"time"
)

// FileType of a stored upload.
type FileType string

const (
	PDF FileType = "pdf"
)

// FileMetadata describes a validated upload.
type FileMetadata struct {
	Name      string    `json:"name"`
	FileType  FileType  `json:"fileType"`
	FileSize  int64     `json:"fileSize"`
	MimeType  string    `json:"mimeType"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentChunk is the text of one PDF page.
type DocumentChunk struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ProcessingTask tracks an asynchronous analysis job.
type ProcessingTask struct {
	ID        string           `json:"id"`
	Status    ProcessingStatus `json:"status"`
	Type      string           `json:"type"`
	FileName  string           `json:"fileName"`
	Error     string           `json:"error,omitempty"`
	Result    *AnalysisResult  `json:"result,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
)
