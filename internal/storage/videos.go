// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务
//
// Package storage persists video metadata in SQLite. The orchestration core
// only reports creations and terminal outcomes here; it never reads the table
// to decide liveness.

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrVideoNotFound is returned for unknown video names.
var ErrVideoNotFound = errors.New("video not found")

// Video is one conversion job's metadata record.
type Video struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"uniqueIndex;not null" json:"name"`
	OriginalFilename string    `gorm:"not null" json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	Duration         float64   `json:"duration"`
	Segments         int       `json:"segments"`
	SegmentDuration  int       `gorm:"default:6" json:"segment_duration"`
	OutputSize       string    `json:"output_size"`
	Status           string    `gorm:"default:pending" json:"status"`
	Progress         int       `gorm:"default:0" json:"progress"`
	ErrorMessage     string    `json:"error_message"`
	PlaylistPath     string    `json:"playlist_path"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Videos is the SQLite-backed video store.
type Videos struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the database and migrates the schema.
func Open(path string) (*Videos, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Video{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Videos{db: db}, nil
}

// Save inserts the video or updates the existing record with the same name.
func (v *Videos) Save(video *Video) error {
	var existing Video
	err := v.db.Where("name = ?", video.Name).First(&existing).Error
	switch {
	case err == nil:
		video.ID = existing.ID
		video.CreatedAt = existing.CreatedAt
		return v.db.Save(video).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return v.db.Create(video).Error
	default:
		return err
	}
}

// ByName returns the video record for a job name.
func (v *Videos) ByName(name string) (*Video, error) {
	var video Video
	if err := v.db.Where("name = ?", name).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &video, nil
}

// List returns all videos, newest first.
func (v *Videos) List() ([]Video, error) {
	var videos []Video
	if err := v.db.Order("created_at desc").Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// Delete removes the record for a job name.
func (v *Videos) Delete(name string) error {
	res := v.db.Where("name = ?", name).Delete(&Video{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// DeleteAll removes every record.
func (v *Videos) DeleteAll() error {
	return v.db.Where("1 = 1").Delete(&Video{}).Error
}

// Count returns the number of video records.
func (v *Videos) Count() (int64, error) {
	var n int64
	err := v.db.Model(&Video{}).Count(&n).Error
	return n, err
}
