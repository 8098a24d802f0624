package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBackend spins up an httptest server whose behavior is delegated to
// handler for everything except the construction-time bucket HEAD, and
// returns a backend with instant, recorded backoff.
func newTestBackend(t *testing.T, maxRetries int, handler http.HandlerFunc) (*S3Backend, *[]time.Duration) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/bucket" {
			w.WriteHeader(http.StatusOK)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	backend, err := NewS3Backend(context.Background(), S3Options{
		Endpoint:   server.URL,
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		Bucket:     "bucket",
		MaxRetries: maxRetries,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	waits := &[]time.Duration{}
	backend.sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return backend, waits
}

func TestNewS3BackendMissingBucket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewS3Backend(context.Background(), S3Options{
		Endpoint: server.URL, AccessKey: "a", SecretKey: "s", Bucket: "bucket",
	})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "does not exist")
}

func TestNewS3BackendRedirectingEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://elsewhere.example.com/bucket")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	_, err := NewS3Backend(context.Background(), S3Options{
		Endpoint: server.URL, AccessKey: "a", SecretKey: "s", Bucket: "bucket",
	})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "redirect")
	assert.Contains(t, cfgErr.Reason, "elsewhere.example.com")
}

func TestNewS3BackendMissingFields(t *testing.T) {
	_, err := NewS3Backend(context.Background(), S3Options{Endpoint: "http://x"})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestS3SaveSuccess(t *testing.T) {
	var gotBody atomic.Value
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/bucket/pfx/key.dat", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "AWS4-HMAC-SHA256")
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, backend.Save(context.Background(), "pfx/key.dat", []byte("payload")))
	assert.Equal(t, "payload", gotBody.Load())
}

func TestS3SaveServerErrorNotRetried(t *testing.T) {
	var requests atomic.Int64
	backend, waits := newTestBackend(t, 5, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, "access denied")
	})

	err := backend.Save(context.Background(), "key.dat", []byte("x"))
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusForbidden, upErr.Status)
	assert.Contains(t, upErr.Body, "access denied")
	assert.EqualValues(t, 1, requests.Load())
	assert.Empty(t, *waits)
}

func TestS3SaveRedirectFatal(t *testing.T) {
	var requests atomic.Int64
	backend, waits := newTestBackend(t, 5, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Location", "https://other.example.com/")
		w.WriteHeader(http.StatusTemporaryRedirect)
	})

	err := backend.Save(context.Background(), "key.dat", []byte("x"))
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusTemporaryRedirect, upErr.Status)
	assert.Contains(t, upErr.Body, "other.example.com")
	// A redirect during transfer is a configuration problem, never retried.
	assert.EqualValues(t, 1, requests.Load())
	assert.Empty(t, *waits)
}

func TestS3SaveRetryExhaustion(t *testing.T) {
	var requests atomic.Int64
	backend, waits := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		// Kill the connection so the client sees a transport error.
		hj := w.(http.Hijacker)
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Error(err)
			return
		}
		conn.Close()
	})

	err := backend.Save(context.Background(), "key.dat", []byte("x"))
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 3, upErr.Attempts)
	assert.EqualValues(t, 3, requests.Load())
	// Exponential backoff: 1s after the first failure, 2s after the second.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestS3LoadSuccess(t *testing.T) {
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, "stored content")
	})

	data, found, err := backend.Load(context.Background(), "key.dat")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("stored content"), data)
}

func TestS3LoadNotFound(t *testing.T) {
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	data, found, err := backend.Load(context.Background(), "missing.dat")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestS3LoadRedirectFatal(t *testing.T) {
	backend, waits := newTestBackend(t, 5, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://other.example.com/")
		w.WriteHeader(http.StatusFound)
	})

	_, _, err := backend.Load(context.Background(), "key.dat")
	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, http.StatusFound, dlErr.Status)
	assert.Empty(t, *waits)
}

func TestS3LoadRetryExhaustion(t *testing.T) {
	var requests atomic.Int64
	backend, waits := newTestBackend(t, 4, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	})

	_, _, err := backend.Load(context.Background(), "key.dat")
	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, 4, dlErr.Attempts)
	assert.EqualValues(t, 4, requests.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *waits)
}

func TestS3ExistsBestEffort(t *testing.T) {
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "present.dat") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ctx := context.Background()
	assert.True(t, backend.Exists(ctx, "present.dat"))
	assert.False(t, backend.Exists(ctx, "absent.dat"))
}

func TestS3ExistsNetworkFailureIsFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	backend, err := NewS3Backend(context.Background(), S3Options{
		Endpoint: server.URL, AccessKey: "a", SecretKey: "s", Bucket: "bucket",
	})
	require.NoError(t, err)
	server.Close()

	assert.False(t, backend.Exists(context.Background(), "any.dat"))
}

func TestS3DeleteTreatsAbsentAsSuccess(t *testing.T) {
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})

	assert.True(t, backend.Delete(context.Background(), "gone.dat"))
}

const listPageOne = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <IsTruncated>true</IsTruncated>
  <NextContinuationToken>token-2</NextContinuationToken>
  <Contents><Key>bench/a.dat</Key></Contents>
  <Contents><Key>bench/b.dat</Key></Contents>
</ListBucketResult>`

const listPageTwo = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <IsTruncated>false</IsTruncated>
  <Contents><Key>bench/c.dat</Key></Contents>
</ListBucketResult>`

func TestS3ListKeysPaginated(t *testing.T) {
	var pages atomic.Int64
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("list-type"))
		assert.Equal(t, "bench/", r.URL.Query().Get("prefix"))
		switch r.URL.Query().Get("continuation-token") {
		case "":
			pages.Add(1)
			fmt.Fprint(w, listPageOne)
		case "token-2":
			pages.Add(1)
			fmt.Fprint(w, listPageTwo)
		default:
			t.Errorf("unexpected continuation token %q", r.URL.Query().Get("continuation-token"))
		}
	})

	it := backend.ListKeys(context.Background(), "bench/")

	// The first page must be consumable before the second is fetched.
	key, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "bench/a.dat", key)
	assert.EqualValues(t, 1, pages.Load())

	var rest []string
	for key, ok := it.Next(); ok; key, ok = it.Next() {
		rest = append(rest, key)
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"bench/b.dat", "bench/c.dat"}, rest)
	assert.EqualValues(t, 2, pages.Load())
}

func TestS3ListKeysRedirectFatal(t *testing.T) {
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://other.example.com/")
		w.WriteHeader(http.StatusMovedPermanently)
	})

	it := backend.ListKeys(context.Background(), "bench/")
	_, ok := it.Next()
	assert.False(t, ok)

	var listErr *ListError
	require.ErrorAs(t, it.Err(), &listErr)
	assert.Equal(t, http.StatusMovedPermanently, listErr.Status)
}

func TestS3DeletePrefix(t *testing.T) {
	var deletes atomic.Int64
	backend, _ := newTestBackend(t, 3, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, listPageTwo)
		case http.MethodDelete:
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	deleted := backend.DeletePrefix(context.Background(), "bench/")
	assert.Equal(t, 1, deleted)
	assert.EqualValues(t, 1, deletes.Load())
}
