// Package config loads the mudra YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Classifier backends.
const (
	ClassifierONNX       = "onnx"
	ClassifierSubprocess = "subprocess"
	ClassifierMock       = "mock"
)

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"` // capture rate requested from the device
}

// ClassifierConfig describes the image classifier backend.
type ClassifierConfig struct {
	Type          string   `yaml:"type"`            // "onnx", "subprocess" or "mock"
	Model         string   `yaml:"model"`           // ONNX model path
	Labels        string   `yaml:"labels"`          // labels file, one per line
	InputWidth    int      `yaml:"input_width"`     // network input width in pixels
	InputHeight   int      `yaml:"input_height"`    // network input height in pixels
	Command       []string `yaml:"command"`         // subprocess argv
	IdleTimeoutMs int      `yaml:"idle_timeout_ms"` // subprocess idle shutdown
}

// RecognitionConfig tunes the polling loop and the decision table.
type RecognitionConfig struct {
	FPS             int               `yaml:"fps"`                 // polling rate
	MaxInFlight     int               `yaml:"max_in_flight"`       // concurrent classifications
	Threshold       *float64          `yaml:"threshold,omitempty"` // top confidence must exceed this
	MotionThreshold float64           `yaml:"motion_threshold"`    // percent of changed pixels; 0 disables the gate
	Labels          map[string]string `yaml:"labels"`              // classifier label -> symbol name
	Enabled         *bool             `yaml:"enabled,omitempty"`
}

// AudioConfig names the bundled audio asset.
type AudioConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PluginsConfig configures hook plugins.
type PluginsConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// UIConfig toggles the system tray.
type UIConfig struct {
	Tray bool `yaml:"tray"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config aggregates all application configuration.
type Config struct {
	Camera      CameraConfig      `yaml:"camera"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Audio       AudioConfig       `yaml:"audio"`
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Plugins     PluginsConfig     `yaml:"plugins"`
	UI          UIConfig          `yaml:"ui"`
	Log         LogConfig         `yaml:"log"`
}

// DefaultLabels is the label table the bundled gesture model was trained with.
func DefaultLabels() map[string]string {
	return map[string]string{
		"fist-hand":      "fist",
		"five-hand":      "open-hand",
		"checkmark-hand": "checkmark",
	}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file and returns the configuration with defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Camera.Width <= 0 {
		c.Camera.Width = 640
	}
	if c.Camera.Height <= 0 {
		c.Camera.Height = 480
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = 30
	}

	if c.Classifier.Type == "" {
		c.Classifier.Type = ClassifierONNX
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "models/gesture01.onnx"
	}
	if c.Classifier.Labels == "" {
		c.Classifier.Labels = "models/gesture01.labels"
	}
	if c.Classifier.InputWidth <= 0 {
		c.Classifier.InputWidth = 224
	}
	if c.Classifier.InputHeight <= 0 {
		c.Classifier.InputHeight = 224
	}
	if c.Classifier.IdleTimeoutMs <= 0 {
		c.Classifier.IdleTimeoutMs = 30000
	}

	if c.Recognition.FPS <= 0 {
		c.Recognition.FPS = 15
	}
	if c.Recognition.MaxInFlight <= 0 {
		c.Recognition.MaxInFlight = 1
	}
	if c.Recognition.Threshold == nil {
		threshold := 0.01
		c.Recognition.Threshold = &threshold
	}
	if len(c.Recognition.Labels) == 0 {
		c.Recognition.Labels = DefaultLabels()
	}
	if c.Recognition.Enabled == nil {
		enabled := true
		c.Recognition.Enabled = &enabled
	}

	if c.Audio.Path == "" {
		c.Audio.Path = "assets/music.mp3"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(dataDir(), "mudra.db")
	}

	if c.Plugins.Dir == "" {
		c.Plugins.Dir = filepath.Join(dataDir(), "plugins")
	}
	if c.Plugins.TimeoutMs <= 0 {
		c.Plugins.TimeoutMs = 5000
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.Store.Path = expandHome(c.Store.Path)
	c.Plugins.Dir = expandHome(c.Plugins.Dir)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Classifier.Type {
	case ClassifierONNX, ClassifierMock:
	case ClassifierSubprocess:
		if len(c.Classifier.Command) == 0 {
			return fmt.Errorf("classifier.command is required for subprocess classifier")
		}
	default:
		return fmt.Errorf("unknown classifier.type %q", c.Classifier.Type)
	}

	if t := c.Recognition.Threshold; t != nil && (*t < 0 || *t >= 1) {
		return fmt.Errorf("recognition.threshold must be in [0, 1), got %.3f", *t)
	}
	if c.Recognition.MotionThreshold < 0 || c.Recognition.MotionThreshold > 100 {
		return fmt.Errorf("recognition.motion_threshold must be between 0 and 100, got %.2f", c.Recognition.MotionThreshold)
	}
	if c.Recognition.FPS > 120 {
		return fmt.Errorf("recognition.fps must be <= 120, got %d", c.Recognition.FPS)
	}

	for label, symbol := range c.Recognition.Labels {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("recognition.labels contains an empty label")
		}
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("recognition.labels[%q] has no symbol", label)
		}
	}

	return nil
}

// IdleTimeout returns the subprocess classifier idle shutdown delay.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Classifier.IdleTimeoutMs) * time.Millisecond
}

// dataDir returns ~/.mudra, or .mudra when the home directory is unknown.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
