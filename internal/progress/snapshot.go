// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务
//
// Package progress holds the per-job progress snapshot and its durable store.

package progress

import "time"

// Status of a conversion job.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusConverting   Status = "converting"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
	StatusCancelled    Status = "cancelled"
)

func (s Status) String() string { return string(s) }

// Terminal reports whether no further transitions follow this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// Snapshot is the single current progress record for a job. Optional fields are
// only meaningful for certain statuses and are omitted otherwise; collaborators
// build user-facing responses directly from this structure, so the field names
// are a stable contract.
type Snapshot struct {
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`

	// converting
	Duration    int    `json:"duration,omitempty"`
	CurrentTime int    `json:"current_time,omitempty"`
	TimeString  string `json:"time_string,omitempty"`
	Frame       string `json:"frame,omitempty"`
	Speed       string `json:"speed,omitempty"`
	ETA         string `json:"eta,omitempty"`

	// completed
	Segments   int    `json:"segments,omitempty"`
	OutputSize string `json:"output_size,omitempty"`

	// error
	Error string `json:"error,omitempty"`
}
