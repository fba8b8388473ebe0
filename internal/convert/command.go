// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SegmentPattern names segment files inside a job's output directory.
const SegmentPattern = "segment_%03d.ts"

// PlaylistName is the HLS manifest produced on success.
const PlaylistName = "playlist.m3u8"

// filterEscaper neutralizes characters with special meaning in FFmpeg filter
// expressions. The overlay text is embedded single-quoted inside the drawtext
// filter, so the quote itself is closed, escaped and reopened; backslash, the
// option delimiter and the %{...} text-expansion trigger are backslash-escaped.
// Single pass, fixed rules.
var filterEscaper = strings.NewReplacer(
	`\`, `\\`,
	`:`, `\:`,
	`'`, `'\''`,
	`%`, `\%`,
)

// EscapeFilterText escapes caller-supplied overlay text for use inside a
// single-quoted drawtext value.
func EscapeFilterText(text string) string {
	return filterEscaper.Replace(text)
}

// OverlayFilter builds the drawtext filter for the semi-transparent text
// overlay: bottom-right corner, 10px padding, white at 50% opacity on a dark
// box.
func OverlayFilter(text string) string {
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=24:fontcolor=white@0.5:x=w-tw-10:y=h-th-10:box=1:boxcolor=black@0.3:boxborderw=5",
		EscapeFilterText(text),
	)
}

// BuildArgs assembles the FFmpeg invocation for one HLS conversion. Progress
// is requested on stdout via -progress pipe:1.
func BuildArgs(input, outputDir string, segmentSeconds int, overlay string) []string {
	args := []string{"-i", input}

	if overlay != "" {
		args = append(args, "-vf", OverlayFilter(overlay))
	}

	args = append(args,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-start_number", "0",
		"-hls_time", fmt.Sprintf("%d", segmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(outputDir, SegmentPattern),
		"-f", "hls",
		"-progress", "pipe:1",
		filepath.Join(outputDir, PlaylistName),
	)

	return args
}
