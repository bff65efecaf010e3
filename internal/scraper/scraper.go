package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/bonetider/internal/logger"
)

const (
	WidgetURL = "https://www.islamiskaforbundet.se/wp-content/plugins/bonetider/Bonetider_Widget.php"
	Origin    = "https://www.islamiskaforbundet.se"
	Referer   = "https://www.islamiskaforbundet.se/bonetider/"
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	City      = "Uddevalla, SE"
	Timeout   = 30 * time.Second

	// Form field names understood by the widget
	FieldCity  = "ifis_bonetider_page_city"
	FieldMonth = "ifis_bonetider_page_month"

	maxBodyBytes = 4 << 20
)

// Options configures a Scraper. Zero values select the package defaults.
type Options struct {
	URL        string
	City       string
	Origin     string
	Referer    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// StatusError reports a non-200 response from the widget
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Scraper handles fetching the timetable document
type Scraper struct {
	client     *http.Client
	opts       Options
	newBackOff func() backoff.BackOff
}

// New creates a new Scraper instance
func New(opts Options) *Scraper {
	if opts.URL == "" {
		opts.URL = WidgetURL
	}
	if opts.City == "" {
		opts.City = City
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	return &Scraper{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		opts: opts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 2 * opts.Timeout
			return b
		},
	}
}

// City returns the city the scraper requests
func (s *Scraper) City() string {
	return s.opts.City
}

// FormData builds the widget's POST body for city and month.
func FormData(city string, month int) url.Values {
	form := url.Values{}
	form.Set(FieldCity, city)
	form.Set(FieldMonth, strconv.Itoa(month))
	return form
}

// Fetch retrieves the raw timetable document for month (1-12). Network errors
// and 5xx responses are retried up to MaxRetries times; other failures return
// immediately.
func (s *Scraper) Fetch(ctx context.Context, month int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month out of range: %d", month)
	}

	body := FormData(s.opts.City, month).Encode()
	start := time.Now()
	attempt := 0

	var document string
	operation := func() error {
		attempt++
		doc, err := s.fetchOnce(ctx, body)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		document = doc
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.opts.MaxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Warn("Upstream fetch failed, retrying", logger.Fields{
			"attempt": attempt,
			"month":   month,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		logger.IncrCounter("upstream.fetch.error")
		return "", err
	}

	logger.RecordTiming("upstream.fetch", time.Since(start))
	logger.Debug("Fetched timetable", logger.Fields{
		"month":    month,
		"city":     s.opts.City,
		"bytes":    len(document),
		"attempts": attempt,
	})

	return document, nil
}

func (s *Scraper) fetchOnce(ctx context.Context, body string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.URL, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.opts.UserAgent)
	if s.opts.Origin != "" {
		req.Header.Set("Origin", s.opts.Origin)
	}
	if s.opts.Referer != "" {
		req.Header.Set("Referer", s.opts.Referer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching timetable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	return decodeBody(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
}

// decodeBody converts the response to UTF-8 using the declared or sniffed charset.
func decodeBody(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding body: %w", err)
	}

	return string(decoded), nil
}
