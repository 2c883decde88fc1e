package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeObjectStore()
	c.normalizeEvents()
	c.normalizeSpeech()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeObjectStore() {
	c.ObjectStore.Endpoint = strings.TrimSpace(c.ObjectStore.Endpoint)
	if c.ObjectStore.Endpoint == "" {
		c.ObjectStore.Endpoint = defaultObjectEndpoint
	}
	if c.ObjectStore.AccessKey == "" {
		if value, ok := os.LookupEnv("TEAMZONES_OBJECT_ACCESS_KEY"); ok {
			c.ObjectStore.AccessKey = strings.TrimSpace(value)
		}
	}
	if c.ObjectStore.SecretKey == "" {
		if value, ok := os.LookupEnv("TEAMZONES_OBJECT_SECRET_KEY"); ok {
			c.ObjectStore.SecretKey = strings.TrimSpace(value)
		}
	}
	c.ObjectStore.Bucket = strings.TrimSpace(c.ObjectStore.Bucket)
	if c.ObjectStore.Bucket == "" {
		c.ObjectStore.Bucket = defaultBucket
	}
	if c.ObjectStore.SignedURLExpiryH <= 0 {
		c.ObjectStore.SignedURLExpiryH = defaultSignedURLExpiryH
	}
}

func (c *Config) normalizeEvents() {
	brokers := make([]string, 0, len(c.Events.Brokers))
	for _, broker := range c.Events.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	c.Events.Brokers = brokers
	c.Events.Topic = strings.TrimSpace(c.Events.Topic)
	if c.Events.Topic == "" {
		c.Events.Topic = defaultEventTopic
	}
	c.Events.GroupID = strings.TrimSpace(c.Events.GroupID)
	if c.Events.GroupID == "" {
		c.Events.GroupID = defaultEventGroupID
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Endpoint = strings.TrimRight(strings.TrimSpace(c.Speech.Endpoint), "/")
	if c.Speech.Endpoint == "" {
		c.Speech.Endpoint = defaultSpeechEndpoint
	}
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("TEAMZONES_SPEECH_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	c.Speech.Language = strings.TrimSpace(c.Speech.Language)
	if c.Speech.Language == "" {
		c.Speech.Language = defaultSpeechLanguage
	}
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	if c.Speech.SyncLimitSeconds <= 0 {
		c.Speech.SyncLimitSeconds = defaultSyncLimitSeconds
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.UploadPrefix = strings.TrimSpace(c.Pipeline.UploadPrefix)
	if c.Pipeline.UploadPrefix == "" {
		c.Pipeline.UploadPrefix = defaultUploadPrefix
	}
	if !strings.HasSuffix(c.Pipeline.UploadPrefix, "/") {
		c.Pipeline.UploadPrefix += "/"
	}
	if c.Pipeline.ThumbnailFraction <= 0 || c.Pipeline.ThumbnailFraction >= 1 {
		c.Pipeline.ThumbnailFraction = defaultThumbnailFraction
	}
	if c.Pipeline.StaleAfterMinutes <= 0 {
		c.Pipeline.StaleAfterMinutes = defaultStaleAfterMinutes
	}
	if c.Pipeline.SweepIntervalMin <= 0 {
		c.Pipeline.SweepIntervalMin = defaultSweepIntervalMin
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
