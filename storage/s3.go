package storage

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// probeTimeout bounds the advisory operations (HEAD, DELETE) that never
	// retry.
	probeTimeout = 10 * time.Second
	// listTimeout bounds a single listing page request.
	listTimeout = 30 * time.Second

	defaultMaxRetries = 5
	defaultTimeout    = 300 * time.Second
)

// S3Options configures an S3-compatible backend.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Region may be empty; most S3-compatible providers accept an empty
	// region in the signature scope.
	Region string
	// MaxRetries is the number of attempts for save/load on connection
	// failures and timeouts.
	MaxRetries int
	// Timeout is the per-request deadline for save/load transfers.
	Timeout time.Duration
	Logger  *slog.Logger
}

// S3Backend talks to an S3-compatible bucket over signed HTTP. Transient
// connection failures and timeouts on transfers are absorbed by retry with
// exponential backoff; every other failure surfaces immediately. Redirects
// are never followed.
type S3Backend struct {
	endpoint   string
	bucket     string
	baseURL    string
	maxRetries int
	timeout    time.Duration
	client     *http.Client
	sign       signer
	logger     *slog.Logger

	// sleep is swappable so tests can observe the backoff schedule without
	// waiting it out.
	sleep func(ctx context.Context, d time.Duration) error
}

var (
	_ Backend = (*S3Backend)(nil)
	_ Cleaner = (*S3Backend)(nil)
)

// NewS3Backend validates the options, probes the bucket with a HEAD request
// and fails fast when the bucket is missing or the endpoint redirects.
func NewS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" || opts.Bucket == "" {
		return nil, &ConfigError{Reason: "s3 backend requires endpoint, access_key, secret_key and bucket"}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	b := &S3Backend{
		endpoint:   endpoint,
		bucket:     opts.Bucket,
		baseURL:    endpoint + "/" + opts.Bucket,
		maxRetries: opts.MaxRetries,
		timeout:    opts.Timeout,
		client:     newHTTPClient(),
		sign:       signer{accessKey: opts.AccessKey, secretKey: opts.SecretKey, region: opts.Region},
		logger:     opts.Logger,
		sleep:      sleepCtx,
	}

	if err := b.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Name returns a human-readable description of the backend.
func (s *S3Backend) Name() string {
	return fmt.Sprintf("S3 bucket %q at %s", s.bucket, s.endpoint)
}

// ensureBucket verifies the bucket is reachable before any benchmark runs.
func (s *S3Backend) ensureBucket(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, s.baseURL, nil)
	if err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	s.sign.sign(req, emptyPayloadHash, time.Now())

	resp, err := s.client.Do(req)
	if err != nil {
		return &ConfigError{Reason: fmt.Sprintf("cannot reach endpoint %s: %v", s.endpoint, err)}
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ConfigError{Reason: fmt.Sprintf("bucket %q does not exist, create it first", s.bucket)}
	case isRedirect(resp.StatusCode):
		return &ConfigError{Reason: fmt.Sprintf(
			"endpoint returned redirect (%d) to %s, check the endpoint and bucket settings",
			resp.StatusCode, resp.Header.Get("Location"))}
	case resp.StatusCode != http.StatusOK:
		return &ConfigError{Reason: fmt.Sprintf("cannot access bucket %q: status %d", s.bucket, resp.StatusCode)}
	}
	return nil
}

// Save uploads content, retrying connection failures and timeouts with
// exponential backoff. Redirects and other HTTP failures are not retried.
func (s *S3Backend) Save(ctx context.Context, key string, data []byte) error {
	payloadHash := hexSHA256(data)

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		retryable, err := s.putOnce(ctx, key, payloadHash, data)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
		if attempt == s.maxRetries-1 {
			break
		}
		wait := time.Duration(1<<uint(attempt)) * time.Second
		s.logger.Warn("upload failed, backing off",
			"key", key, "wait", wait, "attempt", attempt+1, "max_retries", s.maxRetries, "error", err)
		if serr := s.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return &UploadError{Key: key, Attempts: s.maxRetries, Err: lastErr}
}

func (s *S3Backend) putOnce(ctx context.Context, key, payloadHash string, data []byte) (retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPut, s.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return false, &UploadError{Key: key, Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(data))
	s.sign.sign(req, payloadHash, time.Now())

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The caller gave up; do not keep retrying on its behalf.
			return false, ctx.Err()
		}
		return true, err
	}
	defer drainAndClose(resp.Body)

	if isRedirect(resp.StatusCode) {
		return false, &UploadError{Key: key, Status: resp.StatusCode,
			Body: "redirected to " + resp.Header.Get("Location")}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, &UploadError{Key: key, Status: resp.StatusCode, Body: readBodySnippet(resp.Body)}
	}
	return false, nil
}

// Load downloads content with the same retry policy as Save. A 404 is
// reported as not found, never as an error.
func (s *S3Backend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		data, found, retryable, err := s.getOnce(ctx, key)
		if err == nil {
			return data, found, nil
		}
		if !retryable {
			return nil, false, err
		}
		lastErr = err
		if attempt == s.maxRetries-1 {
			break
		}
		wait := time.Duration(1<<uint(attempt)) * time.Second
		s.logger.Warn("download failed, backing off",
			"key", key, "wait", wait, "attempt", attempt+1, "max_retries", s.maxRetries, "error", err)
		if serr := s.sleep(ctx, wait); serr != nil {
			return nil, false, serr
		}
	}
	return nil, false, &DownloadError{Key: key, Attempts: s.maxRetries, Err: lastErr}
}

func (s *S3Backend) getOnce(ctx context.Context, key string) (data []byte, found, retryable bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, false, false, &DownloadError{Key: key, Err: err}
	}
	s.sign.sign(req, emptyPayloadHash, time.Now())

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, false, ctx.Err()
		}
		return nil, false, true, err
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, false, nil
	case isRedirect(resp.StatusCode):
		return nil, false, false, &DownloadError{Key: key, Status: resp.StatusCode,
			Err: fmt.Errorf("redirected to %s", resp.Header.Get("Location"))}
	case resp.StatusCode != http.StatusOK:
		return nil, false, false, &DownloadError{Key: key, Status: resp.StatusCode}
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, false, ctx.Err()
		}
		// The connection dropped mid-body; treat like any other transport
		// failure and retry the whole request.
		return nil, false, true, err
	}
	return data, true, false, nil
}

// Exists checks the key with a short HEAD request. Network trouble counts as
// absent: existence checks are advisory and must never stall a benchmark.
func (s *S3Backend) Exists(ctx context.Context, key string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, s.objectURL(key), nil)
	if err != nil {
		return false
	}
	s.sign.sign(req, emptyPayloadHash, time.Now())

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer drainAndClose(resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Delete removes a key with a short, non-retried DELETE. A 404 counts as
// success since the key is gone either way.
func (s *S3Backend) Delete(ctx context.Context, key string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return false
	}
	s.sign.sign(req, emptyPayloadHash, time.Now())

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer drainAndClose(resp.Body)
	return resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusNoContent ||
		resp.StatusCode == http.StatusNotFound
}

// DeletePrefix deletes everything under the prefix, deleting keys as the
// paginated listing produces them. It returns the number of keys deleted.
func (s *S3Backend) DeletePrefix(ctx context.Context, prefix string) int {
	deleted := 0
	it := s.ListKeys(ctx, prefix)
	for key, ok := it.Next(); ok; key, ok = it.Next() {
		if s.Delete(ctx, key) {
			deleted++
		}
	}
	if err := it.Err(); err != nil {
		s.logger.Warn("listing stopped during prefix cleanup", "prefix", prefix, "error", err)
	}
	return deleted
}

// ListKeys returns a lazy iterator over the bucket listing. Pages are
// fetched on demand with list-type=2 continuation tokens, so callers can
// start consuming keys before the full listing completes.
func (s *S3Backend) ListKeys(ctx context.Context, prefix string) KeyIterator {
	return &s3Iterator{backend: s, ctx: ctx, prefix: prefix}
}

func (s *S3Backend) objectURL(key string) string {
	return s.baseURL + "/" + key
}

// listBucketResult is the standard bucket-listing XML shape.
type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

type s3Iterator struct {
	backend *S3Backend
	ctx     context.Context
	prefix  string

	token string
	page  []string
	pos   int
	done  bool
	err   error
}

func (it *s3Iterator) Next() (string, bool) {
	for {
		if it.err != nil {
			return "", false
		}
		if it.pos < len(it.page) {
			key := it.page[it.pos]
			it.pos++
			return key, true
		}
		if it.done {
			return "", false
		}
		it.fetchPage()
	}
}

func (it *s3Iterator) Err() error { return it.err }

func (it *s3Iterator) fetchPage() {
	reqCtx, cancel := context.WithTimeout(it.ctx, listTimeout)
	defer cancel()

	query := url.Values{}
	query.Set("list-type", "2")
	query.Set("prefix", it.prefix)
	if it.token != "" {
		query.Set("continuation-token", it.token)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, it.backend.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		it.err = &ListError{Prefix: it.prefix, Err: err}
		return
	}
	it.backend.sign.sign(req, emptyPayloadHash, time.Now())

	resp, err := it.backend.client.Do(req)
	if err != nil {
		it.err = &ListError{Prefix: it.prefix, Err: err}
		return
	}
	defer drainAndClose(resp.Body)

	if isRedirect(resp.StatusCode) {
		it.err = &ListError{Prefix: it.prefix, Status: resp.StatusCode,
			Err: fmt.Errorf("redirected to %s", resp.Header.Get("Location"))}
		return
	}
	if resp.StatusCode != http.StatusOK {
		it.err = &ListError{Prefix: it.prefix, Status: resp.StatusCode}
		return
	}

	var result listBucketResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		it.err = &ListError{Prefix: it.prefix, Err: err}
		return
	}

	it.page = it.page[:0]
	it.pos = 0
	for _, c := range result.Contents {
		if c.Key != "" {
			it.page = append(it.page, c.Key)
		}
	}

	if result.IsTruncated && result.NextContinuationToken != "" {
		it.token = result.NextContinuationToken
	} else {
		it.done = true
	}
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

func readBodySnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(body))
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
