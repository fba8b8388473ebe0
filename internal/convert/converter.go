// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package convert

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/elasda977/Slice-Video/internal/convert/parse"
	"github.com/elasda977/Slice-Video/internal/logger"
	"github.com/elasda977/Slice-Video/internal/progress"
)

// LogFile is the per-job FFmpeg stderr capture inside the output directory.
const LogFile = ".conversion.log"

// killGrace is how long a cancelled process gets to exit after SIGINT before
// it is killed.
const killGrace = 5 * time.Second

// errorTailLines is how much of the log is quoted as failure detail.
const errorTailLines = 5

// Config for a Converter.
type Config struct {
	Job            string
	Input          string
	OutputDir      string
	SegmentSeconds int
	Overlay        string
	Binaries       Binaries
	Store          *progress.Store
	Logger         logger.Logger
}

// Converter owns the full lifecycle of one FFmpeg HLS conversion: probe,
// launch, progress parsing, snapshot persistence and termination. Run is the
// only snapshot writer for the job; Cancel cooperates with it through the
// cancelled flag and waits for Run to record the terminal snapshot.
type Converter struct {
	job            string
	input          string
	outputDir      string
	segmentSeconds int
	overlay        string
	bins           Binaries
	store          *progress.Store
	logger         logger.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	cancelled bool
	done      chan struct{}
}

// New creates a Converter for one job.
func New(config Config) (*Converter, error) {
	if config.Job == "" {
		return nil, fmt.Errorf("no job id given")
	}
	if config.Input == "" {
		return nil, fmt.Errorf("no input file given")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("no snapshot store given")
	}
	if config.SegmentSeconds <= 0 {
		config.SegmentSeconds = 6
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.OutputDir == "" {
		config.OutputDir = config.Store.Dir(config.Job)
	}

	return &Converter{
		job:            config.Job,
		input:          config.Input,
		outputDir:      config.OutputDir,
		segmentSeconds: config.SegmentSeconds,
		overlay:        config.Overlay,
		bins:           config.Binaries,
		store:          config.Store,
		logger:         config.Logger,
		done:           make(chan struct{}),
	}, nil
}

// Job returns the job identifier.
func (c *Converter) Job() string { return c.job }

// Run performs the conversion and always records a terminal snapshot before
// returning: completed, error or cancelled. The returned error is for the
// caller's log only; every failure is already durably recorded.
func (c *Converter) Run(ctx context.Context) error {
	defer close(c.done)

	c.writeSnapshot(progress.Snapshot{
		Status:  progress.StatusInitializing,
		Message: "Analyzing video...",
	})

	duration, err := ProbeDuration(ctx, c.bins.FFprobe, c.input)
	if err == nil && duration <= 0 {
		err = fmt.Errorf("probed duration is zero")
	}
	if err != nil {
		c.writeSnapshot(progress.Snapshot{
			Status:  progress.StatusError,
			Message: "Could not determine video duration",
			Error:   err.Error(),
		})
		return err
	}

	if c.isCancelled() {
		c.writeCancelled()
		return nil
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return c.fault("create output directory", err)
	}

	c.writeSnapshot(progress.Snapshot{
		Status:   progress.StatusConverting,
		Progress: 1,
		Message:  "Starting encoding...",
		Duration: int(duration),
	})

	logPath := filepath.Join(c.outputDir, LogFile)
	logFile, err := os.Create(logPath)
	if err != nil {
		return c.fault("create log file", err)
	}

	args := BuildArgs(c.input, c.outputDir, c.segmentSeconds, c.overlay)
	cmd := exec.CommandContext(ctx, c.bins.FFmpeg, args...)
	cmd.Stderr = logFile

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logFile.Close()
		return c.fault("open progress pipe", err)
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		logFile.Close()
		c.writeCancelled()
		return nil
	}
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		logFile.Close()
		return c.fault("start ffmpeg", err)
	}
	c.cmd = cmd
	c.mu.Unlock()

	c.logger.Debug("job %s: ffmpeg started (pid %d)", c.job, cmd.Process.Pid)

	scanner := bufio.NewScanner(stdout)
	scanner.Split(scanLine)
	for scanner.Scan() {
		update, ok := parse.Parse(scanner.Text(), duration)
		if !ok {
			continue
		}
		c.writeSnapshot(progress.Snapshot{
			Status:      progress.StatusConverting,
			Progress:    update.Progress,
			Message:     "Encoding in progress...",
			Duration:    int(duration),
			CurrentTime: update.CurrentTime,
			TimeString:  update.TimeString,
			Frame:       update.Frame,
			Speed:       update.Speed,
			ETA:         update.ETA,
		})
	}

	werr := cmd.Wait()
	logFile.Close()

	if c.isCancelled() {
		c.writeCancelled()
		return nil
	}

	if werr != nil {
		detail := tailLines(logPath, errorTailLines)
		if detail == "" {
			detail = werr.Error()
		}
		c.writeSnapshot(progress.Snapshot{
			Status:  progress.StatusError,
			Message: "Conversion failed. Check log file for details.",
			Error:   detail,
		})
		return fmt.Errorf("ffmpeg: %w", werr)
	}

	segments := countSegments(c.outputDir)
	size := dirSize(c.outputDir)

	c.writeSnapshot(progress.Snapshot{
		Status:     progress.StatusCompleted,
		Progress:   100,
		Message:    "Conversion completed successfully!",
		Duration:   int(duration),
		Segments:   segments,
		OutputSize: HumanSize(size),
	})
	return nil
}

// Cancel requests a graceful stop of the subprocess and waits until Run has
// recorded the cancelled snapshot. A no-op once the job is terminal.
func (c *Converter) Cancel() error {
	c.mu.Lock()
	c.cancelled = true
	var proc *os.Process
	if c.cmd != nil && c.cmd.Process != nil {
		proc = c.cmd.Process
	}
	c.mu.Unlock()

	if proc != nil {
		if err := proc.Signal(os.Interrupt); err == nil {
			timer := time.AfterFunc(killGrace, func() { _ = proc.Kill() })
			defer timer.Stop()
		} else {
			_ = proc.Kill()
		}
	}

	<-c.done
	return nil
}

func (c *Converter) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *Converter) writeCancelled() {
	c.writeSnapshot(progress.Snapshot{
		Status:  progress.StatusCancelled,
		Message: "Conversion cancelled",
	})
}

// fault records an unexpected internal failure as the terminal snapshot; the
// snapshot is the only durable signal callers have.
func (c *Converter) fault(what string, err error) error {
	wrapped := fmt.Errorf("%s: %w", what, err)
	c.writeSnapshot(progress.Snapshot{
		Status:  progress.StatusError,
		Message: fmt.Sprintf("Conversion error: %s", wrapped),
		Error:   wrapped.Error(),
	})
	return wrapped
}

func (c *Converter) writeSnapshot(snap progress.Snapshot) {
	if err := c.store.Write(c.job, snap); err != nil {
		c.logger.Error("job %s: write snapshot: %v", c.job, err)
	}
}

func countSegments(dir string) int {
	matches, err := filepath.Glob(filepath.Join(dir, "segment_*.ts"))
	if err != nil {
		return 0
	}
	return len(matches)
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// tailLines returns the last n lines of the log joined by a space.
func tailLines(path string, n int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

// scanLine splits on both \n and \r so FFmpeg's carriage-return status lines
// arrive as separate tokens.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
