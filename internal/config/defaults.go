package config

const (
	defaultScratchDir        = "~/.local/share/teamzones/scratch"
	defaultLogDir            = "~/.local/share/teamzones/logs"
	defaultAPIBind           = "127.0.0.1:7823"
	defaultObjectEndpoint    = "127.0.0.1:9000"
	defaultBucket            = "teamzones"
	defaultSignedURLExpiryH  = 24 * 7
	defaultEventTopic        = "uploads.finalized"
	defaultEventGroupID      = "teamzones-ingest"
	defaultSpeechEndpoint    = "https://speech.googleapis.com/v1"
	defaultSpeechLanguage    = "en-US"
	defaultSpeechModel       = "video"
	defaultSyncLimitSeconds  = 55
	defaultSpeechTimeout     = 540
	defaultUploadPrefix      = "videos/"
	defaultThumbnailFraction = 0.5
	defaultStaleAfterMinutes = 30
	defaultSweepIntervalMin  = 5
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		ObjectStore: ObjectStore{
			Endpoint:         defaultObjectEndpoint,
			Bucket:           defaultBucket,
			SignedURLExpiryH: defaultSignedURLExpiryH,
		},
		Events: Events{
			Brokers: []string{"127.0.0.1:9092"},
			Topic:   defaultEventTopic,
			GroupID: defaultEventGroupID,
		},
		Speech: Speech{
			Endpoint:         defaultSpeechEndpoint,
			Language:         defaultSpeechLanguage,
			Model:            defaultSpeechModel,
			UseEnhanced:      true,
			SyncLimitSeconds: defaultSyncLimitSeconds,
			TimeoutSeconds:   defaultSpeechTimeout,
		},
		Pipeline: Pipeline{
			UploadPrefix:      defaultUploadPrefix,
			Transcript:        true,
			Thumbnail:         true,
			Duration:          true,
			ThumbnailFraction: defaultThumbnailFraction,
			StaleAfterMinutes: defaultStaleAfterMinutes,
			SweepIntervalMin:  defaultSweepIntervalMin,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
