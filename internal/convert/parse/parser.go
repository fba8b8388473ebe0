// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务
//
// Package parse extracts structured progress from FFmpeg output lines.

package parse

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	reTime  = regexp.MustCompile(`time=([0-9]{2}):([0-9]{2}):([0-9]{2})\.([0-9]{2})`)
	reSpeed = regexp.MustCompile(`speed=\s*([0-9.]+)x`)
	reFrame = regexp.MustCompile(`frame=\s*([0-9]+)`)
)

// ETACalculating is reported while no usable throughput is available.
const ETACalculating = "calculating..."

// Update is the structured progress derived from one FFmpeg output line.
type Update struct {
	Progress    int
	CurrentTime int
	TimeString  string
	Frame       string
	Speed       string
	ETA         string
}

// Parse extracts progress from one raw line given the total media duration in
// seconds. It returns (nil, false) when the line carries no recognizable
// elapsed-time field or the duration is unknown. FFmpeg chatter is unstructured
// and verbose; misses are expected and never an error.
func Parse(line string, duration float64) (*Update, bool) {
	if duration <= 0 {
		return nil, false
	}

	m := reTime.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	current := hours*3600 + minutes*60 + seconds

	percent := int(float64(current) / duration * 100)
	if percent > 100 {
		percent = 100
	}

	speed := "0x"
	speedVal := 0.0
	if sm := reSpeed.FindStringSubmatch(line); sm != nil {
		if x, err := strconv.ParseFloat(sm[1], 64); err == nil {
			speed = sm[1] + "x"
			speedVal = x
		}
	}

	frame := "0"
	if fm := reFrame.FindStringSubmatch(line); fm != nil {
		frame = fm[1]
	}

	eta := ETACalculating
	if speedVal > 0 {
		if remaining := duration - float64(current); remaining > 0 {
			eta = FormatETA(int(remaining / speedVal))
		}
	}

	return &Update{
		Progress:    percent,
		CurrentTime: current,
		TimeString:  TimeString(current, int(duration)),
		Frame:       frame,
		Speed:       speed,
		ETA:         eta,
	}, true
}

// FormatETA renders remaining seconds as "2h 5m", "3m 20s" or "45s".
func FormatETA(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// TimeString renders "elapsed / total" as "HH:MM:SS / HH:MM:SS".
func TimeString(current, total int) string {
	return fmt.Sprintf("%s / %s", clock(current), clock(total))
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
