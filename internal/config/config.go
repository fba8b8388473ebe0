// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Paths  PathsConfig  `yaml:"paths"`
	Upload UploadConfig `yaml:"upload"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind        string   `yaml:"bind"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path      string `yaml:"path"`
	ProbePath string `yaml:"probe_path"`
}

// PathsConfig 目录配置
type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Data   string `yaml:"data"`
}

// UploadConfig 上传限制
type UploadConfig struct {
	MaxSizeBytes int64    `yaml:"max_size_bytes"`
	Extensions   []string `yaml:"extensions"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8001"},
		FFmpeg: FFmpegConfig{Path: "ffmpeg", ProbePath: "ffprobe"},
		Paths:  PathsConfig{Input: "input", Output: "output", Data: "data"},
		Upload: UploadConfig{
			MaxSizeBytes: 5 << 30,
			Extensions:   []string{".mp4", ".avi", ".mkv", ".mov", ".flv", ".wmv", ".webm"},
		},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	def := Default()
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.FFmpeg.Path == "" {
		cfg.FFmpeg.Path = def.FFmpeg.Path
	}
	if cfg.FFmpeg.ProbePath == "" {
		cfg.FFmpeg.ProbePath = def.FFmpeg.ProbePath
	}
	if cfg.Paths.Input == "" {
		cfg.Paths.Input = def.Paths.Input
	}
	if cfg.Paths.Output == "" {
		cfg.Paths.Output = def.Paths.Output
	}
	if cfg.Paths.Data == "" {
		cfg.Paths.Data = def.Paths.Data
	}
	if cfg.Upload.MaxSizeBytes <= 0 {
		cfg.Upload.MaxSizeBytes = def.Upload.MaxSizeBytes
	}
	if len(cfg.Upload.Extensions) == 0 {
		cfg.Upload.Extensions = def.Upload.Extensions
	}

	return cfg, nil
}
