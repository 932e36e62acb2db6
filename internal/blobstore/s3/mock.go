package s3

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockBucket is the bucket name served by NewMock.
const MockBucket = "mock-bucket"

// Mock is an in-memory fake of the handful of S3 calls Client makes. It
// honours If-Match and If-None-Match on PUT the way S3 does.
type Mock struct {
	mu      sync.Mutex
	objects map[string]mockObject
	// Down makes every request fail at the transport level.
	Down bool
	// FailStatus, when set, is returned as an S3 error for every request.
	FailStatus int
}

type mockObject struct {
	body []byte
	etag string
}

// NewMock returns a Client wired to a fresh Mock.
func NewMock() (*Client, *Mock) {
	m := &Mock{objects: make(map[string]mockObject)}
	api := s3.New(s3.Options{
		Region:                     "us-east-1",
		Credentials:                credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
		HTTPClient:                 &http.Client{Transport: m},
		UsePathStyle:               true,
		BaseEndpoint:               aws.String("https://mock.s3.local"),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
		RetryMaxAttempts:           1,
	})
	return &Client{api: api, bucket: MockBucket}, m
}

// Body returns the stored bytes for key.
func (m *Mock) Body(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o.body, ok
}

// Put stores body as if another client had written it.
func (m *Mock) Put(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = mockObject{body: body, etag: etagOf(body)}
}

// RoundTrip implements http.RoundTripper.
func (m *Mock) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Down {
		return nil, io.ErrUnexpectedEOF
	}
	if m.FailStatus != 0 {
		return respondError(m.FailStatus, http.StatusText(m.FailStatus)), nil
	}
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch {
	case req.Method == http.MethodHead && key == "":
		return respond(http.StatusOK, nil, nil), nil
	case req.Method == http.MethodGet:
		o, ok := m.objects[key]
		if !ok {
			return respondError(http.StatusNotFound, "NoSuchKey"), nil
		}
		return respond(http.StatusOK, o.body, etagHeader(o.etag)), nil
	case req.Method == http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		cur, exists := m.objects[key]
		if inm := req.Header.Get("If-None-Match"); inm == "*" && exists {
			return respondError(http.StatusPreconditionFailed, "PreconditionFailed"), nil
		}
		if im := req.Header.Get("If-Match"); im != "" && (!exists || im != cur.etag) {
			if !exists {
				return respondError(http.StatusNotFound, "NoSuchKey"), nil
			}
			return respondError(http.StatusPreconditionFailed, "PreconditionFailed"), nil
		}
		o := mockObject{body: body, etag: etagOf(body)}
		m.objects[key] = o
		return respond(http.StatusOK, nil, etagHeader(o.etag)), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func etagOf(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// etagHeader goes through Set so the key is canonical ("Etag"); the SDK reads
// it with Header.Get.
func etagHeader(etag string) http.Header {
	h := http.Header{}
	h.Set("ETag", etag)
	return h
}

func respond(status int, body []byte, h http.Header) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func respondError(status int, code string) *http.Response {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>` + code + `</Code><Message>` + code + `</Message></Error>`)
	h := http.Header{}
	h.Set("Content-Type", "application/xml")
	return respond(status, body, h)
}
