// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package api

// ConversionRequest starts a conversion job
type ConversionRequest struct {
	VideoName       string `json:"video_name" binding:"required"`
	SegmentDuration int    `json:"segment_duration"`
	OverlayText     string `json:"overlay_text"`
}

// ConversionResponse acknowledges a started job
type ConversionResponse struct {
	Message   string `json:"message"`
	VideoName string `json:"video_name"`
}

// UploadResponse acknowledges a stored upload
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

// ServerStatus reports service statistics
type ServerStatus struct {
	Status        string   `json:"status"`
	VideosCount   int64    `json:"videos_count"`
	ActiveJobs    []string `json:"active_jobs"`
	Observers     int      `json:"observers"`
	DiskUsage     string   `json:"disk_usage"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	CPU           float64  `json:"cpu_usage"`
	Memory        uint64   `json:"memory_bytes"`
	Encoder       string   `json:"encoder"`
}

// MessageResponse for simple acknowledgements
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
