// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package job

import "errors"

var (
	ErrNotFound               = errors.New("job not found")
	ErrJobExists              = errors.New("job already exists")
	ErrInputNotFound          = errors.New("input video file not found")
	ErrInvalidInput           = errors.New("invalid input file type")
	ErrInvalidSegmentDuration = errors.New("segment duration must be between 1 and 30 seconds")
)
