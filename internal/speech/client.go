package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"teamzones/internal/config"
)

// Error describes a failed transcription request.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("speech %s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("speech %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("speech %s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Alternative is one ranked transcription candidate for an utterance.
type Alternative struct {
	Transcript string `json:"transcript"`
}

// Result is one recognized utterance with its ranked alternatives.
type Result struct {
	Alternatives []Alternative `json:"alternatives"`
}

// RecognitionConfig is the fixed configuration sent with every request.
type RecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model"`
	UseEnhanced                bool   `json:"useEnhanced"`
}

type recognizeRequest struct {
	Audio  audioPayload      `json:"audio"`
	Config RecognitionConfig `json:"config"`
}

type audioPayload struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []Result `json:"results"`
}

type operationStatus struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Error    *operationError    `json:"error,omitempty"`
	Response *recognizeResponse `json:"response,omitempty"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	pollInitialInterval = time.Second
	pollMaxInterval     = 30 * time.Second

	// pcmBytesPerSecond is the data rate of the extracted audio
	// (mono, 16 kHz, 16-bit samples).
	pcmBytesPerSecond = 32000
)

// Client talks to the recognition service over HTTP.
type Client struct {
	endpoint    string
	apiKey      string
	recognition RecognitionConfig
	syncLimit   time.Duration
	timeout     time.Duration
	httpClient  *http.Client
}

// NewClient constructs a client from the speech configuration section.
func NewClient(cfg config.Speech) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		recognition: RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            16000,
			LanguageCode:               cfg.Language,
			EnableAutomaticPunctuation: true,
			Model:                      cfg.Model,
			UseEnhanced:                cfg.UseEnhanced,
		},
		syncLimit:  time.Duration(cfg.SyncLimitSeconds) * time.Second,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// TranscribeFile reads a WAV file and returns its assembled transcript. Audio
// longer than the synchronous limit takes the long-running path.
func (c *Client) TranscribeFile(ctx context.Context, wavPath string, durationSeconds float64) (string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", &Error{Op: "read audio", Err: err}
	}
	content := base64.StdEncoding.EncodeToString(audio)

	var results []Result
	if c.exceedsSyncLimit(durationSeconds, len(audio)) {
		results, err = c.transcribeLongRunning(ctx, content)
	} else {
		results, err = c.Recognize(ctx, content)
	}
	if err != nil {
		return "", err
	}
	return AssembleTranscript(results), nil
}

// exceedsSyncLimit decides whether audio must take the long-running path. When
// the container reported no duration, the PCM byte rate stands in for it so
// long audio does not hit the synchronous endpoint's limit.
func (c *Client) exceedsSyncLimit(durationSeconds float64, audioBytes int) bool {
	if durationSeconds > 0 {
		return time.Duration(durationSeconds*float64(time.Second)) > c.syncLimit
	}
	return float64(audioBytes) > c.syncLimit.Seconds()*pcmBytesPerSecond
}

// Recognize submits audio to the synchronous endpoint.
func (c *Client) Recognize(ctx context.Context, audioContent string) ([]Result, error) {
	var response recognizeResponse
	if err := c.post(ctx, "recognize", "/speech:recognize", audioContent, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// StartLongRunning submits audio to the long-running endpoint and returns the
// operation handle to poll.
func (c *Client) StartLongRunning(ctx context.Context, audioContent string) (string, error) {
	var op operationStatus
	if err := c.post(ctx, "start operation", "/speech:longrunningrecognize", audioContent, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", &Error{Op: "start operation", Message: "service returned no operation name"}
	}
	return op.Name, nil
}

// AwaitOperation polls an operation until it completes, backing off
// exponentially, bounded by the configured overall deadline.
func (c *Client) AwaitOperation(ctx context.Context, name string) ([]Result, error) {
	deadline := time.Now().Add(c.timeout)
	interval := pollInitialInterval

	for {
		op, err := c.getOperation(ctx, name)
		if err != nil {
			return nil, err
		}
		if op.Done {
			if op.Error != nil {
				return nil, &Error{Op: "await operation", Status: op.Error.Code, Message: op.Error.Message}
			}
			if op.Response == nil {
				return nil, nil
			}
			return op.Response.Results, nil
		}

		if time.Now().Add(interval).After(deadline) {
			return nil, &Error{Op: "await operation", Message: fmt.Sprintf("operation %s did not complete within %s", name, c.timeout)}
		}
		select {
		case <-ctx.Done():
			return nil, &Error{Op: "await operation", Err: ctx.Err()}
		case <-time.After(interval):
		}
		interval *= 2
		if interval > pollMaxInterval {
			interval = pollMaxInterval
		}
	}
}

func (c *Client) transcribeLongRunning(ctx context.Context, audioContent string) ([]Result, error) {
	name, err := c.StartLongRunning(ctx, audioContent)
	if err != nil {
		return nil, err
	}
	return c.AwaitOperation(ctx, name)
}

func (c *Client) post(ctx context.Context, op, path, audioContent string, out any) error {
	payload := recognizeRequest{
		Audio:  audioPayload{Content: audioContent},
		Config: c.recognition,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(body))
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, out)
}

func (c *Client) getOperation(ctx context.Context, name string) (*operationStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL("/operations/"+name), nil)
	if err != nil {
		return nil, &Error{Op: "poll operation", Err: err}
	}
	var op operationStatus
	if err := c.do("poll operation", req, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{Op: op, Status: resp.StatusCode, Message: errorMessage(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	full := c.endpoint + path
	if c.apiKey == "" {
		return full
	}
	return full + "?key=" + url.QueryEscape(c.apiKey)
}

func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	if trimmed == "" {
		return "request failed"
	}
	return trimmed
}
