package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	APIBind string `toml:"api_bind"`
}

// Selection bounds candidate windows and the final clip count.
type Selection struct {
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
	MaxClipCount       int     `toml:"max_clip_count"`
}

// Render controls the output geometry and burned caption style.
type Render struct {
	AspectRatio   string `toml:"aspect_ratio"` // "9:16" or "4:5"
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	FontName      string `toml:"font_name"`
	FontSize      int    `toml:"font_size"`
	MarginV       int    `toml:"margin_v"`
	VideoPreset   string `toml:"video_preset"`
	VideoCRF      int    `toml:"video_crf"`
	AudioBitrate  string `toml:"audio_bitrate"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Ingest configures the external fetch tool.
type Ingest struct {
	YtDlpBinary    string `toml:"ytdlp_binary"`
	FormatPrimary  string `toml:"format_primary"`
	FormatFallback string `toml:"format_fallback"`
}

// Oracle selects the text-generation provider used for clip scoring and
// clip metadata. API keys are read from the environment, never the file.
type Oracle struct {
	Provider string `toml:"provider"` // openai, anthropic, gemini
	Model    string `toml:"model"`
}

// Transcribe configures the speech-to-text engine.
type Transcribe struct {
	Model string `toml:"model"`
}

// Captions configures generated clip metadata.
type Captions struct {
	MandatoryHashtags []string `toml:"mandatory_hashtags"`
	MinHashtags       int      `toml:"min_hashtags"`
	MaxHashtags       int      `toml:"max_hashtags"`
	MaxTitleLength    int      `toml:"max_title_length"`
}

// Workflow contains worker and timing settings for the pipeline manager.
type Workflow struct {
	Workers                  int `toml:"workers"`
	PollIntervalSeconds      int `toml:"poll_interval_seconds"`
	DownloadTimeoutSeconds   int `toml:"download_timeout_seconds"`
	TranscribeTimeoutSeconds int `toml:"transcribe_timeout_seconds"`
	OracleTimeoutSeconds     int `toml:"oracle_timeout_seconds"`
	EncodeTimeoutSeconds     int `toml:"encode_timeout_seconds"`
	RetryAttempts            int `toml:"retry_attempts"`
	RetryBaseDelayMS         int `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS          int `toml:"retry_max_delay_ms"`
}

// Config is the top-level application configuration.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Selection  Selection  `toml:"selection"`
	Render     Render     `toml:"render"`
	Ingest     Ingest     `toml:"ingest"`
	Oracle     Oracle     `toml:"oracle"`
	Transcribe Transcribe `toml:"transcribe"`
	Captions   Captions   `toml:"captions"`
	Workflow   Workflow   `toml:"workflow"`
}

// DefaultConfigPath is the location probed when --config is not given.
const DefaultConfigPath = "~/.config/clipline/config.toml"

// Load reads the TOML file at path, layering it over defaults. A missing
// file at the default location is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath {
			if err := cfg.normalize(); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	dataDir, err := ExpandPath(c.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("config: paths.data_dir: %w", err)
	}
	c.Paths.DataDir = dataDir
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Selection.MaxClipCount <= 0 {
		c.Selection.MaxClipCount = defaultMaxClipCount
	}
	if c.Captions.MinHashtags <= 0 {
		c.Captions.MinHashtags = defaultMinHashtags
	}
	if c.Captions.MaxHashtags <= 0 {
		c.Captions.MaxHashtags = defaultMaxHashtags
	}
	if c.Captions.MaxTitleLength <= 0 {
		c.Captions.MaxTitleLength = defaultMaxTitleLength
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("config: paths.data_dir must not be empty")
	}
	if c.Selection.MinDurationSeconds <= 0 {
		return fmt.Errorf("config: selection.min_duration_seconds must be positive")
	}
	if c.Selection.MaxDurationSeconds <= c.Selection.MinDurationSeconds {
		return fmt.Errorf("config: selection.max_duration_seconds must exceed min_duration_seconds")
	}
	if c.Selection.MaxClipCount < 1 {
		return fmt.Errorf("config: selection.max_clip_count must be at least 1")
	}
	switch c.Render.AspectRatio {
	case "9:16", "4:5":
	default:
		return fmt.Errorf("config: render.aspect_ratio must be 9:16 or 4:5, got %q", c.Render.AspectRatio)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("config: render output dimensions must be positive")
	}
	switch Provider(c.Oracle.Provider) {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("config: oracle.provider must be openai, anthropic, or gemini, got %q", c.Oracle.Provider)
	}
	if c.Captions.MinHashtags > c.Captions.MaxHashtags {
		return fmt.Errorf("config: captions.min_hashtags must not exceed max_hashtags")
	}
	if len(c.Captions.MandatoryHashtags) > c.Captions.MinHashtags {
		return fmt.Errorf("config: captions.mandatory_hashtags cannot exceed min_hashtags")
	}
	return nil
}

// Provider names an oracle backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// MediaDir is where source downloads and extracted audio live.
func (c *Config) MediaDir() string { return filepath.Join(c.Paths.DataDir, "media") }

// ClipsDir returns the per-video output directory.
func (c *Config) ClipsDir(videoID string) string {
	return filepath.Join(c.Paths.DataDir, "clips", videoID)
}

// DatabasePath locates the SQLite state store.
func (c *Config) DatabasePath() string { return filepath.Join(c.Paths.DataDir, "clipline.db") }

// LockPath locates the single-instance lock file.
func (c *Config) LockPath() string { return filepath.Join(c.Paths.DataDir, "clipline.lock") }

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.MediaDir(),
		filepath.Join(c.Paths.DataDir, "clips"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ against the current user's home.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
