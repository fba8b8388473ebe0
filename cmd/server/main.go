// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/elasda977/Slice-Video/internal/api"
	"github.com/elasda977/Slice-Video/internal/config"
	"github.com/elasda977/Slice-Video/internal/convert"
	"github.com/elasda977/Slice-Video/internal/events"
	"github.com/elasda977/Slice-Video/internal/job"
	"github.com/elasda977/Slice-Video/internal/logger"
	"github.com/elasda977/Slice-Video/internal/progress"
	"github.com/elasda977/Slice-Video/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	bindAddr := cfg.Server.Bind
	if *bind != "" {
		bindAddr = *bind
	}
	ffmpegPath := cfg.FFmpeg.Path
	if *ffmpegBin != "" {
		ffmpegPath = *ffmpegBin
	}

	logger := logger.New("slice-video ")

	bins, err := convert.FindBinaries(ffmpegPath, cfg.FFmpeg.ProbePath)
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}
	logger.Info("encoder: %s", bins.Version)

	for _, dir := range []string{cfg.Paths.Input, cfg.Paths.Output, cfg.Paths.Data} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Create dir %s: %v", dir, err)
		}
	}

	videos, err := storage.Open(filepath.Join(cfg.Paths.Data, "slice-video.db"))
	if err != nil {
		log.Fatalf("Database init: %v", err)
	}

	validator, err := convert.NewExtensionValidator(cfg.Upload.Extensions)
	if err != nil {
		log.Fatalf("Validator init: %v", err)
	}

	store := progress.NewStore(cfg.Paths.Output)
	broadcaster := events.NewBroadcaster()

	manager := job.NewManager(job.ManagerConfig{
		Binaries: bins,
		Store:    store,
		Events:   broadcaster,
		Videos:   videos,
		Logger:   logger,
	})

	handler := api.NewHandler(api.Config{
		Manager:       manager,
		Events:        broadcaster,
		Videos:        videos,
		Validator:     validator,
		Logger:        logger,
		InputDir:      cfg.Paths.Input,
		OutputDir:     cfg.Paths.Output,
		MaxUploadSize: cfg.Upload.MaxSizeBytes,
		Encoder:       bins.Version,
	})

	r := gin.Default()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
		corsCfg.AllowCredentials = true
		r.Use(gin.Recovery(), cors.New(corsCfg))
	} else {
		r.Use(gin.Recovery(), cors.Default())
	}

	// 转码结果直接作为静态资源提供
	r.Static("/output", cfg.Paths.Output)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/convert", handler.Convert)
		apiGroup.POST("/convert/cancel/:name", handler.CancelConversion)
		apiGroup.GET("/progress/:name", handler.GetProgress)

		apiGroup.GET("/videos", handler.ListVideos)
		apiGroup.GET("/videos/:name", handler.GetVideo)
		apiGroup.DELETE("/videos/:name", handler.DeleteVideo)
		apiGroup.POST("/videos/upload", handler.Upload)
		apiGroup.DELETE("/cleanup", handler.Cleanup)

		apiGroup.GET("/status", handler.Status)
	}

	r.GET("/ws/progress", handler.ProgressSocket)
	r.GET("/health", handler.Health)

	log.Printf("Slice-Video listening on %s", bindAddr)
	if err := r.Run(bindAddr); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
