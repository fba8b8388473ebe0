// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elasda977/Slice-Video/internal/convert"
	"github.com/elasda977/Slice-Video/internal/events"
	"github.com/elasda977/Slice-Video/internal/logger"
	"github.com/elasda977/Slice-Video/internal/progress"
	"github.com/elasda977/Slice-Video/internal/storage"
)

// Runner is one conversion in flight.
type Runner interface {
	Canceller
	Run(ctx context.Context) error
}

// StartRequest describes one conversion to launch.
type StartRequest struct {
	Input          string
	SegmentSeconds int
	Overlay        string
}

// ManagerConfig wires the manager's collaborators.
type ManagerConfig struct {
	Binaries convert.Binaries
	Store    *progress.Store
	Events   *events.Broadcaster
	Videos   *storage.Videos
	Logger   logger.Logger

	// NewRunner overrides the converter factory, for tests.
	NewRunner func(convert.Config) (Runner, error)
}

// Manager owns the registry and runs the control flow: register, launch the
// job goroutine, record the terminal outcome, deregister, broadcast. Start
// returns as soon as the job is registered; job duration never blocks the
// triggering request.
type Manager struct {
	bins      convert.Binaries
	store     *progress.Store
	registry  *Registry
	events    *events.Broadcaster
	videos    *storage.Videos
	logger    logger.Logger
	newRunner func(convert.Config) (Runner, error)
}

// NewManager creates a Manager.
func NewManager(config ManagerConfig) *Manager {
	m := &Manager{
		bins:      config.Binaries,
		store:     config.Store,
		registry:  NewRegistry(),
		events:    config.Events,
		videos:    config.Videos,
		logger:    config.Logger,
		newRunner: config.NewRunner,
	}
	if m.logger == nil {
		m.logger = logger.Nop()
	}
	if m.events == nil {
		m.events = events.NewBroadcaster()
	}
	if m.newRunner == nil {
		m.newRunner = func(cfg convert.Config) (Runner, error) {
			return convert.New(cfg)
		}
	}
	return m
}

// Name derives the job identifier from a source file name.
func Name(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Start validates the request, registers the job and launches its goroutine.
// The returned identifier is available immediately; progress arrives through
// the snapshot store and the broadcaster.
func (m *Manager) Start(req StartRequest) (string, error) {
	if req.SegmentSeconds == 0 {
		req.SegmentSeconds = 6
	}
	if req.SegmentSeconds < 1 || req.SegmentSeconds > 30 {
		return "", ErrInvalidSegmentDuration
	}

	info, err := os.Stat(req.Input)
	if err != nil {
		return "", ErrInputNotFound
	}

	if req.Overlay == "" {
		req.Overlay = fmt.Sprintf("Slice-Video | %s", time.Now().UTC().Format("2006-01-02 15:04"))
	}

	id := Name(req.Input)

	runner, err := m.newRunner(convert.Config{
		Job:            id,
		Input:          req.Input,
		SegmentSeconds: req.SegmentSeconds,
		Overlay:        req.Overlay,
		Binaries:       m.bins,
		Store:          m.store,
		Logger:         m.logger,
	})
	if err != nil {
		return "", err
	}

	if err := m.registry.Register(id, runner); err != nil {
		return "", err
	}

	if m.videos != nil {
		err := m.videos.Save(&storage.Video{
			Name:             id,
			OriginalFilename: filepath.Base(req.Input),
			FileSize:         info.Size(),
			SegmentDuration:  req.SegmentSeconds,
			Status:           "pending",
		})
		if err != nil {
			m.registry.Unregister(id)
			return "", fmt.Errorf("record video: %w", err)
		}
	}

	go m.run(id, runner)

	m.logger.Info("job %s: conversion started", id)
	return id, nil
}

func (m *Manager) run(id string, r Runner) {
	if err := r.Run(context.Background()); err != nil {
		m.logger.Error("job %s: %v", id, err)
	}

	snap, err := m.store.Read(id)
	if err != nil {
		// The runner failed before it could record anything. Persist the
		// synthesized outcome so progress reads agree with the broadcast.
		snap = progress.Snapshot{
			Status:  progress.StatusError,
			Message: "Conversion failed",
			Error:   "no snapshot recorded",
		}
		if werr := m.store.Write(id, snap); werr != nil {
			m.logger.Error("job %s: write snapshot: %v", id, werr)
		}
	}

	m.finalize(id, snap)
	m.registry.Unregister(id)
	m.events.Broadcast(events.Event{
		Type:   events.TypeConversionComplete,
		Job:    id,
		Status: snap.Status,
	})
}

// finalize reports the terminal outcome to the relational store.
func (m *Manager) finalize(id string, snap progress.Snapshot) {
	if m.videos == nil {
		return
	}

	video, err := m.videos.ByName(id)
	if err != nil {
		m.logger.Error("job %s: load video record: %v", id, err)
		return
	}

	video.Status = snap.Status.String()
	video.Progress = snap.Progress
	video.ErrorMessage = snap.Error
	if snap.Status == progress.StatusCompleted {
		video.Segments = snap.Segments
		video.OutputSize = snap.OutputSize
		video.Duration = float64(snap.Duration)
		video.PlaylistPath = fmt.Sprintf("output/%s/%s", id, convert.PlaylistName)
	}

	if err := m.videos.Save(video); err != nil {
		m.logger.Error("job %s: update video record: %v", id, err)
	}
}

// Cancel stops an active job. ErrNotFound for unknown or finished jobs.
func (m *Manager) Cancel(id string) error {
	return m.registry.Cancel(id)
}

// Progress returns the latest snapshot for a job.
func (m *Manager) Progress(id string) (progress.Snapshot, error) {
	return m.store.Read(id)
}

// Active returns the identifiers of in-flight jobs.
func (m *Manager) Active() []string {
	return m.registry.Active()
}
