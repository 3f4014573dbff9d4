package config

import "time"

const (
	defaultDataDir             = "~/.local/share/clipline"
	defaultAPIBind             = "127.0.0.1:8753"
	defaultMinDurationSeconds  = 15
	defaultMaxDurationSeconds  = 45
	defaultMaxClipCount        = 3
	defaultAspectRatio         = "4:5"
	defaultOutputWidth         = 1080
	defaultOutputHeight        = 1350
	defaultFontName            = "Arial Black"
	defaultFontSize            = 40
	defaultMarginV             = 80
	defaultVideoPreset         = "medium"
	defaultVideoCRF            = 18
	defaultAudioBitrate        = "192k"
	defaultYtDlpBinary         = "yt-dlp"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultFormatPrimary       = "best[ext=mp4]/best"
	defaultFormatFallback      = "worst[ext=mp4]/worst"
	defaultOracleProvider      = "gemini"
	defaultOracleModel         = ""
	defaultTranscribeModel     = "whisper-1"
	defaultMinHashtags         = 15
	defaultMaxHashtags         = 25
	defaultMaxTitleLength      = 80
	defaultWorkers             = 2
	defaultPollIntervalSeconds = 2
	defaultDownloadTimeout     = 900
	defaultTranscribeTimeout   = 600
	defaultOracleTimeout       = 120
	defaultEncodeTimeout       = 600
	defaultRetryAttempts       = 3
	defaultRetryBaseDelayMS    = 1000
	defaultRetryMaxDelayMS     = 15000
)

var defaultMandatoryHashtags = []string{"#shorts", "#viral", "#trending", "#fyp", "#foryou"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			APIBind: defaultAPIBind,
		},
		Selection: Selection{
			MinDurationSeconds: defaultMinDurationSeconds,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			MaxClipCount:       defaultMaxClipCount,
		},
		Render: Render{
			AspectRatio:   defaultAspectRatio,
			Width:         defaultOutputWidth,
			Height:        defaultOutputHeight,
			FontName:      defaultFontName,
			FontSize:      defaultFontSize,
			MarginV:       defaultMarginV,
			VideoPreset:   defaultVideoPreset,
			VideoCRF:      defaultVideoCRF,
			AudioBitrate:  defaultAudioBitrate,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Ingest: Ingest{
			YtDlpBinary:    defaultYtDlpBinary,
			FormatPrimary:  defaultFormatPrimary,
			FormatFallback: defaultFormatFallback,
		},
		Oracle: Oracle{
			Provider: defaultOracleProvider,
			Model:    defaultOracleModel,
		},
		Transcribe: Transcribe{
			Model: defaultTranscribeModel,
		},
		Captions: Captions{
			MandatoryHashtags: append([]string(nil), defaultMandatoryHashtags...),
			MinHashtags:       defaultMinHashtags,
			MaxHashtags:       defaultMaxHashtags,
			MaxTitleLength:    defaultMaxTitleLength,
		},
		Workflow: Workflow{
			Workers:                  defaultWorkers,
			PollIntervalSeconds:      defaultPollIntervalSeconds,
			DownloadTimeoutSeconds:   defaultDownloadTimeout,
			TranscribeTimeoutSeconds: defaultTranscribeTimeout,
			OracleTimeoutSeconds:     defaultOracleTimeout,
			EncodeTimeoutSeconds:     defaultEncodeTimeout,
			RetryAttempts:            defaultRetryAttempts,
			RetryBaseDelayMS:         defaultRetryBaseDelayMS,
			RetryMaxDelayMS:          defaultRetryMaxDelayMS,
		},
	}
}

// PollInterval returns how often idle workers look for runnable videos.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalSeconds) * time.Second
}

// DownloadTimeout returns the per-fetch timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Workflow.DownloadTimeoutSeconds) * time.Second
}

// TranscribeTimeout returns the per-transcription timeout.
func (c *Config) TranscribeTimeout() time.Duration {
	return time.Duration(c.Workflow.TranscribeTimeoutSeconds) * time.Second
}

// OracleTimeout returns the per-oracle-call timeout.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Workflow.OracleTimeoutSeconds) * time.Second
}

// EncodeTimeout returns the per-render timeout.
func (c *Config) EncodeTimeout() time.Duration {
	return time.Duration(c.Workflow.EncodeTimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the initial retry backoff.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Workflow.RetryBaseDelayMS) * time.Millisecond
}

// RetryMaxDelay returns the backoff ceiling.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.Workflow.RetryMaxDelayMS) * time.Millisecond
}
