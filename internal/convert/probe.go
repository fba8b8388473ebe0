// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package convert

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeDuration asks ffprobe for the total playable length of the source in
// seconds. A missing or unparseable duration is reported as an error; the
// caller must treat it as a distinct failure, not a zero-length job.
func ProbeDuration(ctx context.Context, ffprobe, input string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	value := strings.TrimSpace(string(out))
	if value == "" {
		return 0, fmt.Errorf("ffprobe: duration missing")
	}

	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: bad duration %q: %w", value, err)
	}
	return duration, nil
}
