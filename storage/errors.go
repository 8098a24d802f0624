package storage

import "fmt"

// ConfigError reports an unusable backend configuration discovered at
// construction time, such as a nonexistent bucket or a redirecting endpoint.
// It is fatal for the provider: benchmarking does not start.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "storage configuration: " + e.Reason
}

// UploadError reports a failed save. Either Status carries the HTTP status
// the server answered with, or Attempts counts the exhausted retries and Err
// holds the last underlying cause.
type UploadError struct {
	Key      string
	Status   int
	Body     string
	Attempts int
	Err      error
}

func (e *UploadError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("upload %s failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
	}
	if e.Status > 0 {
		return fmt.Sprintf("upload %s failed: %d %s", e.Key, e.Status, e.Body)
	}
	return fmt.Sprintf("upload %s failed: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DownloadError reports a failed load, with the same status-or-retries split
// as UploadError.
type DownloadError struct {
	Key      string
	Status   int
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("download %s failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
	}
	if e.Status > 0 {
		return fmt.Sprintf("download %s failed: %d", e.Key, e.Status)
	}
	return fmt.Sprintf("download %s failed: %v", e.Key, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ListError reports a failed listing request.
type ListError struct {
	Prefix string
	Status int
	Err    error
}

func (e *ListError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("list %q failed: %d", e.Prefix, e.Status)
	}
	return fmt.Sprintf("list %q failed: %v", e.Prefix, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }
