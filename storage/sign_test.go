package storage

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignSetsHeaders(t *testing.T) {
	s := signer{accessKey: "AKIDEXAMPLE", secretKey: "secret", region: "us-east-1"}
	req, err := http.NewRequest(http.MethodGet, "https://s3.example.com/bucket/key.dat", nil)
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 12, 30, 45, 0, time.UTC)
	s.sign(req, emptyPayloadHash, now)

	assert.Equal(t, "20240315T123045Z", req.Header.Get("X-Amz-Date"))
	assert.Equal(t, emptyPayloadHash, req.Header.Get("X-Amz-Content-Sha256"))

	auth := req.Header.Get("Authorization")
	assert.Contains(t, auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20240315/us-east-1/s3/aws4_request")
	assert.Contains(t, auth, "SignedHeaders=host;x-amz-content-sha256;x-amz-date")
	assert.Regexp(t, `Signature=[0-9a-f]{64}$`, auth)
}

func TestSignIsDeterministic(t *testing.T) {
	s := signer{accessKey: "key", secretKey: "secret", region: "eu-north-1"}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := http.NewRequest(http.MethodPut, "https://s3.example.com/bucket/a.dat", nil)
	require.NoError(t, err)
	second, err := http.NewRequest(http.MethodPut, "https://s3.example.com/bucket/a.dat", nil)
	require.NoError(t, err)

	hash := hexSHA256([]byte("payload"))
	s.sign(first, hash, now)
	s.sign(second, hash, now)
	assert.Equal(t, first.Header.Get("Authorization"), second.Header.Get("Authorization"))
}

func TestSignEmptyRegionScope(t *testing.T) {
	s := signer{accessKey: "key", secretKey: "secret"}
	req, err := http.NewRequest(http.MethodHead, "http://localhost:9000/bucket", nil)
	require.NoError(t, err)

	s.sign(req, emptyPayloadHash, time.Now())
	assert.Contains(t, req.Header.Get("Authorization"), "//s3/aws4_request")
}

func TestSignatureDependsOnPayload(t *testing.T) {
	s := signer{accessKey: "key", secretKey: "secret", region: "r"}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	a, _ := http.NewRequest(http.MethodPut, "https://s3.example.com/bucket/a.dat", nil)
	b, _ := http.NewRequest(http.MethodPut, "https://s3.example.com/bucket/a.dat", nil)
	s.sign(a, hexSHA256([]byte("one")), now)
	s.sign(b, hexSHA256([]byte("two")), now)
	assert.NotEqual(t, a.Header.Get("Authorization"), b.Header.Get("Authorization"))
}

func TestURIEncode(t *testing.T) {
	assert.Equal(t, "plain-key_0.dat~x", uriEncode("plain-key_0.dat~x"))
	assert.Equal(t, "a%20b", uriEncode("a b"))
	assert.Equal(t, "a%2Fb", uriEncode("a/b"))
	assert.Equal(t, "%2B%3D%26", uriEncode("+=&"))
}

func TestCanonicalURI(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://host/bucket/pfx/1024bytes/file_00001.dat", nil)
	require.NoError(t, err)
	assert.Equal(t, "/bucket/pfx/1024bytes/file_00001.dat", canonicalURI(req.URL))

	req, err = http.NewRequest(http.MethodGet, "https://host/bucket/a%20b", nil)
	require.NoError(t, err)
	assert.Equal(t, "/bucket/a%20b", canonicalURI(req.URL))

	req, err = http.NewRequest(http.MethodGet, "https://host", nil)
	require.NoError(t, err)
	assert.Equal(t, "/", canonicalURI(req.URL))
}

func TestCanonicalQuery(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet,
		"https://host/bucket?prefix=bench%2F&list-type=2&continuation-token=a+b", nil)
	require.NoError(t, err)
	assert.Equal(t, "continuation-token=a%20b&list-type=2&prefix=bench%2F", canonicalQuery(req.URL))

	req, err = http.NewRequest(http.MethodGet, "https://host/bucket", nil)
	require.NoError(t, err)
	assert.Equal(t, "", canonicalQuery(req.URL))
}
