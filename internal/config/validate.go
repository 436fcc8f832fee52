package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMirror(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.Threads < 0 {
		return errors.New("tools.threads must not be negative")
	}
	return nil
}

func (c *Config) validateEncode() error {
	if err := ensurePositiveMap(map[string]int{
		"encode.frame_rate":        c.Encode.FrameRate,
		"encode.gop":               c.Encode.GOP,
		"encode.segment_seconds":   c.Encode.SegmentSeconds,
		"encode.audio_sample_rate": c.Encode.AudioSampleRate,
	}); err != nil {
		return err
	}
	if c.Encode.CRF < 0 || c.Encode.CRF > 51 {
		return errors.New("encode.crf must be between 0 and 51")
	}
	if c.Encode.StartNumber < 0 {
		return errors.New("encode.start_number must not be negative")
	}
	switch c.Encode.HWAccel {
	case "", "cuda", "vaapi", "qsv", "videotoolbox":
	default:
		return fmt.Errorf("encode.hwaccel: unsupported value %q", c.Encode.HWAccel)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMirror() error {
	if !c.Mirror.Enabled {
		return nil
	}
	if c.Mirror.Bucket == "" {
		return errors.New("mirror.bucket must be set when mirror.enabled is true")
	}
	if c.Mirror.Region == "" {
		return errors.New("mirror.region must be set when mirror.enabled is true (or set AWS_REGION)")
	}
	if strings.TrimSpace(c.Mirror.AccessKey) == "" || strings.TrimSpace(c.Mirror.SecretKey) == "" {
		return errors.New("mirror.access_key and mirror.secret_key must be set when mirror.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
