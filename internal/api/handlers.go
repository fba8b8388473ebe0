// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	gopsutilprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/elasda977/Slice-Video/internal/convert"
	"github.com/elasda977/Slice-Video/internal/events"
	"github.com/elasda977/Slice-Video/internal/job"
	"github.com/elasda977/Slice-Video/internal/logger"
	"github.com/elasda977/Slice-Video/internal/progress"
	"github.com/elasda977/Slice-Video/internal/storage"
)

// Config wires the handler's collaborators.
type Config struct {
	Manager       *job.Manager
	Events        *events.Broadcaster
	Videos        *storage.Videos
	Validator     convert.Validator
	Logger        logger.Logger
	InputDir      string
	OutputDir     string
	MaxUploadSize int64
	Encoder       string
}

// Handler holds dependencies
type Handler struct {
	manager       *job.Manager
	events        *events.Broadcaster
	videos        *storage.Videos
	validator     convert.Validator
	logger        logger.Logger
	inputDir      string
	outputDir     string
	maxUploadSize int64
	encoder       string
	upgrader      websocket.Upgrader
}

// NewHandler creates API handler
func NewHandler(config Config) *Handler {
	h := &Handler{
		manager:       config.Manager,
		events:        config.Events,
		videos:        config.Videos,
		validator:     config.Validator,
		logger:        config.Logger,
		inputDir:      config.InputDir,
		outputDir:     config.OutputDir,
		maxUploadSize: config.MaxUploadSize,
		encoder:       config.Encoder,
	}
	if h.logger == nil {
		h.logger = logger.Nop()
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return h
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// Convert POST /api/convert
func (h *Handler) Convert(c *gin.Context) {
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	if h.validator != nil && !h.validator.IsValid(req.VideoName) {
		errResp(c, http.StatusBadRequest, "Invalid file type", job.ErrInvalidInput.Error())
		return
	}

	id, err := h.manager.Start(job.StartRequest{
		Input:          filepath.Join(h.inputDir, filepath.Base(req.VideoName)),
		SegmentSeconds: req.SegmentDuration,
		Overlay:        req.OverlayText,
	})
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobExists):
			errResp(c, http.StatusConflict, "Conversion already in progress", err.Error())
		case errors.Is(err, job.ErrInputNotFound):
			errResp(c, http.StatusNotFound, "Input video file not found", err.Error())
		case errors.Is(err, job.ErrInvalidSegmentDuration):
			errResp(c, http.StatusBadRequest, "Invalid segment duration", err.Error())
		default:
			errResp(c, http.StatusInternalServerError, "Conversion failed to start", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, ConversionResponse{
		Message:   fmt.Sprintf("Conversion started for '%s'", req.VideoName),
		VideoName: id,
	})
}

// GetProgress GET /api/progress/:name
func (h *Handler) GetProgress(c *gin.Context) {
	name := c.Param("name")

	snap, err := h.manager.Progress(name)
	if err != nil {
		if errors.Is(err, progress.ErrNoSnapshot) {
			errResp(c, http.StatusNotFound, "No conversion in progress for this video", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Invalid progress file", err.Error())
		return
	}

	c.JSON(http.StatusOK, snap)
}

// CancelConversion POST /api/convert/cancel/:name
func (h *Handler) CancelConversion(c *gin.Context) {
	name := c.Param("name")

	if err := h.manager.Cancel(name); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			errResp(c, http.StatusNotFound, "No active conversion found", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Cancel failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Conversion cancelled for '%s'", name),
	})
}

// ListVideos GET /api/videos
func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.videos.List()
	if err != nil {
		errResp(c, http.StatusInternalServerError, "List failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, videos)
}

// GetVideo GET /api/videos/:name
func (h *Handler) GetVideo(c *gin.Context) {
	name := c.Param("name")

	video, err := h.videos.ByName(name)
	if err != nil {
		if errors.Is(err, storage.ErrVideoNotFound) {
			errResp(c, http.StatusNotFound, "Video not found", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Lookup failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, video)
}

// DeleteVideo DELETE /api/videos/:name
func (h *Handler) DeleteVideo(c *gin.Context) {
	name := c.Param("name")

	if err := h.videos.Delete(name); err != nil {
		if errors.Is(err, storage.ErrVideoNotFound) {
			errResp(c, http.StatusNotFound, "Video not found", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Delete failed", err.Error())
		return
	}

	if err := os.RemoveAll(filepath.Join(h.outputDir, name)); err != nil {
		h.logger.Error("delete output dir for %s: %v", name, err)
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Video '%s' deleted successfully", name),
	})
}

// Cleanup DELETE /api/cleanup
func (h *Handler) Cleanup(c *gin.Context) {
	if err := h.videos.DeleteAll(); err != nil {
		errResp(c, http.StatusInternalServerError, "Cleanup failed", err.Error())
		return
	}

	entries, err := os.ReadDir(h.outputDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				if err := os.RemoveAll(filepath.Join(h.outputDir, entry.Name())); err != nil {
					h.logger.Error("cleanup %s: %v", entry.Name(), err)
				}
			}
		}
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "All videos and output files deleted"})
}

// Upload POST /api/videos/upload
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		errResp(c, http.StatusBadRequest, "Missing file", err.Error())
		return
	}

	name := filepath.Base(file.Filename)
	if h.validator != nil && !h.validator.IsValid(name) {
		errResp(c, http.StatusBadRequest, "Invalid file type", job.ErrInvalidInput.Error())
		return
	}

	if file.Size > h.maxUploadSize {
		errResp(c, http.StatusRequestEntityTooLarge, "File too large",
			fmt.Sprintf("maximum size: %s", convert.HumanSize(h.maxUploadSize)))
		return
	}

	src, err := file.Open()
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}
	defer src.Close()

	if err := os.MkdirAll(h.inputDir, 0o755); err != nil {
		errResp(c, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}

	path := filepath.Join(h.inputDir, name)
	dst, err := os.Create(path)
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}

	// 不信任 multipart 头里声明的大小，按实际数据流限制
	written, err := io.Copy(dst, io.LimitReader(src, h.maxUploadSize+1))
	dst.Close()
	if err != nil || written > h.maxUploadSize {
		os.Remove(path)
		if written > h.maxUploadSize {
			errResp(c, http.StatusRequestEntityTooLarge, "File too large",
				fmt.Sprintf("maximum size: %s", convert.HumanSize(h.maxUploadSize)))
			return
		}
		errResp(c, http.StatusInternalServerError, "Upload failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:  "File uploaded successfully",
		Filename: name,
		Size:     written,
		Path:     path,
	})
}

// Status GET /api/status
func (h *Handler) Status(c *gin.Context) {
	count, err := h.videos.Count()
	if err != nil {
		errResp(c, http.StatusInternalServerError, "Status failed", err.Error())
		return
	}

	status := ServerStatus{
		Status:      "running",
		VideosCount: count,
		ActiveJobs:  h.manager.Active(),
		Observers:   h.events.Observers(),
		DiskUsage:   convert.HumanSize(treeSize(h.outputDir)),
		Encoder:     h.encoder,
	}

	if proc, err := gopsutilprocess.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			status.CPU = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			status.Memory = mem.RSS
		}
		if created, err := proc.CreateTime(); err == nil {
			status.UptimeSeconds = (time.Now().UnixMilli() - created) / 1000
		}
	}

	c.JSON(http.StatusOK, status)
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func treeSize(dir string) int64 {
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
