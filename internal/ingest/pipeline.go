package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"teamzones/internal/config"
	"teamzones/internal/fileutil"
	"teamzones/internal/logging"
	"teamzones/internal/objectstore"
	"teamzones/internal/videostore"
)

// Event is an upload-finalized notification from the object store.
type Event struct {
	Bucket     string `json:"bucket"`
	ObjectPath string `json:"objectPath"`
}

// MediaExtractor produces derived media artifacts from a downloaded source.
type MediaExtractor interface {
	ExtractAudio(ctx context.Context, src, dest string) error
	ExtractThumbnail(ctx context.Context, src string, fraction float64, dest string) error
	ProbeDuration(ctx context.Context, src string) (float64, error)
}

// Transcriber converts an extracted WAV file into transcript text.
type Transcriber interface {
	TranscribeFile(ctx context.Context, wavPath string, durationSeconds float64) (string, error)
}

// Pipeline processes upload-finalized events end to end.
type Pipeline struct {
	cfg     *config.Config
	store   *videostore.Store
	objects objectstore.Client
	media   MediaExtractor
	speech  Transcriber
	logger  *slog.Logger
}

// New assembles a pipeline from its collaborators.
func New(cfg *config.Config, store *videostore.Store, objects objectstore.Client, media MediaExtractor, speech Transcriber, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		objects: objects,
		media:   media,
		speech:  speech,
		logger:  logging.NewComponentLogger(logger, "ingest"),
	}
}

// Derived artifact values gathered by the extraction stages. Nil fields were
// not produced (stage disabled) and stay untouched by the final merge.
type artifacts struct {
	transcript   *string
	thumbnailURL *string
	duration     *float64
}

// errSuperseded marks an invocation that lost the guarded status write to a
// concurrent delivery; the event settles as a no-op.
var errSuperseded = errors.New("record reached terminal status concurrently")

// maxErrorLen bounds the stored lastError text.
const maxErrorLen = 300

// HandleFinalized runs the pipeline for one event. Unparseable or out-of-prefix
// paths and redeliveries for terminal records settle as successful no-ops.
// Stage failures are recorded on the record itself; only a failure to persist
// that error status propagates to the caller for redelivery.
func (p *Pipeline) HandleFinalized(ctx context.Context, ev Event) error {
	if !strings.HasPrefix(ev.ObjectPath, p.cfg.Pipeline.UploadPrefix) {
		p.logger.Debug("ignoring object outside upload prefix", logging.String(logging.FieldObjectPath, ev.ObjectPath))
		return nil
	}

	ref, err := ParseObjectPath(ev.ObjectPath, p.cfg.Pipeline.UploadPrefix)
	if err != nil {
		p.logger.Error("dropping event with unparseable object path", logging.Error(err))
		return nil
	}

	ctx = logging.WithVideoID(ctx, ref.VideoID)
	logger := logging.WithContext(ctx, p.logger)
	if ref.WeekID != "" {
		logger = logger.With(logging.String(logging.FieldWeekID, ref.WeekID))
	}
	if ref.UserID != "" {
		logger = logger.With(logging.String(logging.FieldUserID, ref.UserID))
	}

	status, err := p.store.StatusByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, videostore.ErrNotFound) {
			logger.Warn("dropping event for unknown week record", logging.String(logging.FieldObjectPath, ev.ObjectPath))
			return nil
		}
		return fmt.Errorf("read record status: %w", err)
	}
	if status.IsTerminal() {
		logger.Info("ignoring redelivered event for settled record", logging.String("status", string(status)))
		return nil
	}

	logger.Info("processing upload", logging.String(logging.FieldObjectPath, ev.ObjectPath))
	result, err := p.process(ctx, logger, ev, ref)
	if err != nil {
		if errors.Is(err, errSuperseded) {
			logger.Info("record settled by a concurrent delivery")
			return nil
		}
		logger.Error("ingest failed", logging.Error(err))
		applied, markErr := p.store.MarkError(ctx, ref, sanitizeError(err))
		if markErr != nil {
			return fmt.Errorf("record error status: %w", markErr)
		}
		if !applied {
			logger.Info("record settled before error status write")
		}
		return nil
	}

	ready := videostore.StatusReady
	applied, err := p.store.MergeVideoGuarded(ctx, ref, videostore.FieldPatch{
		Status:          &ready,
		Transcript:      result.transcript,
		ThumbnailURL:    result.thumbnailURL,
		DurationSeconds: result.duration,
	})
	if err != nil {
		return fmt.Errorf("record ready status: %w", err)
	}
	if !applied {
		logger.Info("record settled before ready status write")
		return nil
	}
	logger.Info("ingest complete")
	return nil
}

func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, ev Event, ref videostore.Ref) (artifacts, error) {
	var result artifacts

	scratch, err := fileutil.NewScratchDir(p.cfg.Paths.ScratchDir, ref.VideoID)
	if err != nil {
		return result, err
	}
	defer func() {
		if removeErr := scratch.Remove(); removeErr != nil {
			logger.Warn("scratch cleanup failed", logging.Error(removeErr))
		}
	}()

	source := scratch.File("source" + path.Ext(ev.ObjectPath))
	if err := p.objects.Download(ctx, ev.Bucket, ev.ObjectPath, source); err != nil {
		return result, err
	}

	applied, err := p.store.MarkTranscribing(ctx, ref)
	if err != nil {
		return result, fmt.Errorf("mark transcribing: %w", err)
	}
	if !applied {
		return result, errSuperseded
	}

	stages := p.cfg.Pipeline
	var duration float64
	if stages.Duration || stages.Transcript {
		duration, err = p.media.ProbeDuration(ctx, source)
		if err != nil {
			return result, err
		}
		if stages.Duration {
			result.duration = &duration
		}
	}

	if stages.Thumbnail {
		url, err := p.produceThumbnail(ctx, ev, scratch, source)
		if err != nil {
			return result, err
		}
		result.thumbnailURL = &url
	}

	if stages.Transcript {
		transcript, err := p.produceTranscript(ctx, scratch, source, duration)
		if err != nil {
			return result, err
		}
		result.transcript = &transcript
	}

	return result, nil
}

func (p *Pipeline) produceThumbnail(ctx context.Context, ev Event, scratch *fileutil.ScratchDir, source string) (string, error) {
	ctx = logging.WithStage(ctx, "thumbnail")
	thumb := scratch.File("thumbnail.jpg")
	if err := p.media.ExtractThumbnail(ctx, source, p.cfg.Pipeline.ThumbnailFraction, thumb); err != nil {
		return "", err
	}

	thumbPath := ThumbnailPath(ev.ObjectPath)
	if err := p.objects.Upload(ctx, ev.Bucket, thumbPath, thumb, "image/jpeg"); err != nil {
		return "", err
	}

	expiry := time.Duration(p.cfg.ObjectStore.SignedURLExpiryH) * time.Hour
	return p.objects.SignedURL(ctx, ev.Bucket, thumbPath, expiry)
}

func (p *Pipeline) produceTranscript(ctx context.Context, scratch *fileutil.ScratchDir, source string, duration float64) (string, error) {
	ctx = logging.WithStage(ctx, "transcript")
	wav := scratch.File("audio.wav")
	if err := p.media.ExtractAudio(ctx, source, wav); err != nil {
		return "", err
	}
	return p.speech.TranscribeFile(ctx, wav, duration)
}

// sanitizeError flattens a failure into a single-line message bounded for
// storage in the record's lastError field.
func sanitizeError(err error) string {
	message := strings.Join(strings.Fields(err.Error()), " ")
	if len(message) > maxErrorLen {
		cut := maxErrorLen
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut]
	}
	if message == "" {
		message = "processing failed"
	}
	return message
}
