package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"playlet/internal/timecode"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second

	// Speed hints outside this range produce audible artifacts.
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Config captures the runtime settings for the synthesis endpoint.
type Config struct {
	BaseURL        string
	Voice          string
	Speed          float64
	TimeoutSeconds int
}

// Request describes one synthesis call.
type Request struct {
	Text  string
	Voice string
	Speed float64
}

// Result reports the rendered audio and its measured duration.
type Result struct {
	AudioPath string
	Duration  timecode.Millis
	Voice     string
	Speed     float64
}

// Client talks to a CosyVoice-style synthesis server.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a synthesis client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Voice:          strings.TrimSpace(cfg.Voice),
			Speed:          cfg.Speed,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// ClampSpeed bounds a speed hint to what the backend renders cleanly.
func ClampSpeed(speed float64) float64 {
	if speed <= 0 {
		return 1.0
	}
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

// Synthesize renders the request text to outputPath and measures the result.
func (c *Client) Synthesize(ctx context.Context, request Request, outputPath string) (Result, error) {
	var empty Result
	text := strings.TrimSpace(request.Text)
	if text == "" {
		return empty, errors.New("tts synthesize: text required")
	}
	if c.cfg.BaseURL == "" {
		return empty, errors.New("tts synthesize: base url required")
	}
	voice := strings.TrimSpace(request.Voice)
	if voice == "" {
		voice = c.cfg.Voice
	}
	if voice == "" {
		return empty, errors.New("tts synthesize: voice required")
	}
	speed := request.Speed
	if speed == 0 {
		speed = c.cfg.Speed
	}
	speed = ClampSpeed(speed)

	form := url.Values{}
	form.Set("text", text)
	form.Set("spk", voice)
	form.Set("speed", strconv.FormatFloat(speed, 'f', 2, 64))

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.fetchAudioOnce(ctx, form, outputPath)
		if err == nil {
			duration, durErr := MeasureWAV(outputPath)
			if durErr != nil {
				return empty, fmt.Errorf("tts synthesize: measure audio: %w", durErr)
			}
			if duration <= 0 {
				return empty, errors.New("tts synthesize: rendered audio is empty")
			}
			return Result{AudioPath: outputPath, Duration: duration, Voice: voice, Speed: speed}, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return empty, err
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return empty, sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return empty, fmt.Errorf("tts synthesize: failed after %d attempts: %w", attempts, lastErr)
}

// HealthCheck verifies the synthesis server answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.BaseURL == "" {
		return errors.New("tts health: base url required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("tts health: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts health: http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) fetchAudioOnce(ctx context.Context, form url.Values, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/tts",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("tts request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("tts request: create output: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(outputPath)
		return fmt.Errorf("tts request: write audio: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("tts request: close output: %w", err)
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("tts request: http %d: %s", e.StatusCode, e.Body)
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	// Connection failures to a local synthesis server are usually transient.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
