package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                  = 8080
	DefaultDatabasePath          = "./activities.db"
	DefaultFramesDir             = "./frames"
	DefaultCaptureInterval       = 15 * time.Minute
	DefaultTrackingModel         = "gpt-4o-mini"
	DefaultPersonConfidence      = 0.5
	DefaultMovementThresholdPx   = 50.0
	DefaultFrameDiffThreshold    = 0.15
	DefaultForceAnalyzeInterval  = 30 * time.Minute
	DefaultDetectorTimeout       = 15 * time.Second
	DefaultAnalyzerTimeout       = 30 * time.Second
	DefaultDurationCeilingMinute = 240
)

// Duration wraps time.Duration so configs can say "15m" or "1h" instead
// of nanosecond counts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Detector  DetectorConfig  `yaml:"detector"`
	Detection DetectionConfig `yaml:"detection"`
	Cameras   []CameraConfig  `yaml:"cameras"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"` // "sqlite" or "postgres"
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type StorageConfig struct {
	FramesDir string `yaml:"frames_dir"`
}

type OpenAIConfig struct {
	APIKey        string   `yaml:"api_key"`
	TrackingModel string   `yaml:"tracking_model"`
	Timeout       Duration `yaml:"timeout"`
}

// DetectorConfig points at the person-detection sidecar service.
type DetectorConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
}

// DetectionConfig holds the capture-gate thresholds.
type DetectionConfig struct {
	Enabled              bool     `yaml:"enabled"`
	PersonConfidence     float64  `yaml:"person_confidence_threshold"`
	MovementThresholdPx  float64  `yaml:"movement_threshold_pixels"`
	FrameDiffThreshold   float64  `yaml:"frame_difference_threshold"`
	ForceAnalyzeInterval Duration `yaml:"force_analyze_interval"`
}

type CameraConfig struct {
	Name            string       `yaml:"name"`
	Room            string       `yaml:"room"`
	SnapshotURL     string       `yaml:"snapshot_url"`
	CaptureInterval Duration     `yaml:"capture_interval"`
	ActiveHours     *ActiveHours `yaml:"active_hours,omitempty"`
}

// ActiveHours limits capture attempts to a daily time window, given as
// "HH:MM" local times.
type ActiveHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Within reports whether t falls inside the window. A nil window is
// always active.
func (h *ActiveHours) Within(t time.Time) bool {
	if h == nil {
		return true
	}
	start, err := time.Parse("15:04", h.Start)
	if err != nil {
		return true
	}
	end, err := time.Parse("15:04", h.End)
	if err != nil {
		return true
	}
	minute := t.Hour()*60 + t.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if startMin <= endMin {
		return minute >= startMin && minute <= endMin
	}
	// Window crosses midnight.
	return minute >= startMin || minute <= endMin
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Storage.FramesDir == "" {
		c.Storage.FramesDir = DefaultFramesDir
	}
	if c.OpenAI.TrackingModel == "" {
		c.OpenAI.TrackingModel = DefaultTrackingModel
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = Duration(DefaultAnalyzerTimeout)
	}
	if c.Detector.Timeout == 0 {
		c.Detector.Timeout = Duration(DefaultDetectorTimeout)
	}
	if c.Detection.PersonConfidence == 0 {
		c.Detection.PersonConfidence = DefaultPersonConfidence
	}
	if c.Detection.MovementThresholdPx == 0 {
		c.Detection.MovementThresholdPx = DefaultMovementThresholdPx
	}
	if c.Detection.FrameDiffThreshold == 0 {
		c.Detection.FrameDiffThreshold = DefaultFrameDiffThreshold
	}
	if c.Detection.ForceAnalyzeInterval == 0 {
		c.Detection.ForceAnalyzeInterval = Duration(DefaultForceAnalyzeInterval)
	}
	for i := range c.Cameras {
		if c.Cameras[i].CaptureInterval == 0 {
			c.Cameras[i].CaptureInterval = Duration(DefaultCaptureInterval)
		}
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DETECTOR_ENDPOINT"); v != "" {
		c.Detector.Endpoint = v
	}
}

func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Cameras))
	for _, cam := range c.Cameras {
		if cam.Name == "" {
			return fmt.Errorf("camera with empty name in config")
		}
		if seen[cam.Name] {
			return fmt.Errorf("duplicate camera name: %s", cam.Name)
		}
		seen[cam.Name] = true
		if cam.SnapshotURL == "" {
			return fmt.Errorf("camera %s has no snapshot_url", cam.Name)
		}
	}
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	return nil
}
