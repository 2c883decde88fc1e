package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration consistency after normalization.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		problems = append(problems, "paths.scratch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if strings.TrimSpace(c.ObjectStore.Bucket) == "" {
		problems = append(problems, "object_store.bucket must be set")
	}
	if c.Pipeline.Transcript && strings.TrimSpace(c.Speech.Endpoint) == "" {
		problems = append(problems, "speech.endpoint must be set when pipeline.transcript is enabled")
	}
	if !c.Pipeline.Transcript && !c.Pipeline.Thumbnail && !c.Pipeline.Duration {
		problems = append(problems, "pipeline must enable at least one of transcript, thumbnail, duration")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
