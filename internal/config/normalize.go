package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	if err := c.normalizeEncryption(); err != nil {
		return err
	}
	c.normalizeEncode()
	c.normalizeLogging()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeMirror()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if c.Tools.Threads == 0 {
		c.Tools.Threads = defaultThreads
	}
}

func (c *Config) normalizeEncryption() error {
	c.Encryption.KeyURI = strings.TrimSpace(c.Encryption.KeyURI)
	if c.Encryption.KeyURI == "" {
		c.Encryption.KeyURI = defaultKeyURI
	}
	if strings.TrimSpace(c.Encryption.KeyFile) == "" {
		c.Encryption.KeyFile = defaultKeyFile
	}
	var err error
	if c.Encryption.KeyFile, err = expandPath(c.Encryption.KeyFile); err != nil {
		return fmt.Errorf("encryption.key_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncode() {
	c.Encode.VideoCodec = strings.TrimSpace(c.Encode.VideoCodec)
	if c.Encode.VideoCodec == "" {
		c.Encode.VideoCodec = defaultVideoCodec
	}
	c.Encode.HWAccel = strings.ToLower(strings.TrimSpace(c.Encode.HWAccel))
	if c.Encode.HWAccel == "none" {
		c.Encode.HWAccel = ""
	}
	c.Encode.Profile = strings.TrimSpace(c.Encode.Profile)
	c.Encode.AudioCodec = strings.TrimSpace(c.Encode.AudioCodec)
	if c.Encode.AudioCodec == "" {
		c.Encode.AudioCodec = defaultAudioCodec
	}
	c.Encode.AudioBitrate = strings.TrimSpace(c.Encode.AudioBitrate)
	if c.Encode.AudioBitrate == "" {
		c.Encode.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
		return nil
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMirror() {
	c.Mirror.Bucket = strings.TrimSpace(c.Mirror.Bucket)
	c.Mirror.Prefix = strings.Trim(strings.TrimSpace(c.Mirror.Prefix), "/")
	c.Mirror.Endpoint = strings.TrimSpace(c.Mirror.Endpoint)
	if c.Mirror.AccessKey == "" {
		if value, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok {
			c.Mirror.AccessKey = value
		}
	}
	if c.Mirror.SecretKey == "" {
		if value, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok {
			c.Mirror.SecretKey = value
		}
	}
	if strings.TrimSpace(c.Mirror.Region) == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Mirror.Region = value
		}
	}
	c.Mirror.Region = strings.TrimSpace(c.Mirror.Region)
}
