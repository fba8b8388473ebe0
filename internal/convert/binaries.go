// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务
//
// Package convert runs and supervises FFmpeg HLS conversion jobs.

package convert

import (
	"fmt"
	"os/exec"
	"strings"
)

// Binaries holds the resolved encoder tool paths.
type Binaries struct {
	FFmpeg  string
	FFprobe string
	Version string
}

// FindBinaries resolves the ffmpeg/ffprobe paths and captures the encoder
// version line. Startup fails when either tool is missing.
func FindBinaries(ffmpegPath, ffprobePath string) (Binaries, error) {
	var b Binaries

	ffmpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return b, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}
	ffprobe, err := exec.LookPath(ffprobePath)
	if err != nil {
		return b, fmt.Errorf("invalid ffprobe binary: %w", err)
	}

	b.FFmpeg = ffmpeg
	b.FFprobe = ffprobe

	out, err := exec.Command(ffmpeg, "-version").Output()
	if err != nil {
		return b, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	if lines := strings.SplitN(string(out), "\n", 2); len(lines) > 0 {
		b.Version = strings.TrimSpace(lines[0])
	}

	return b, nil
}
