package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"limscore/pkg/domain"
)

// mockRoundTripper provides a tiny fake S3 subset so the adapter can be
// exercised without network access.
type mockRoundTripper struct{ state map[string][]byte }

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodHead:
		if body, ok := m.state[key]; ok {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{
				"Content-Length": {fmt.Sprintf("%d", len(body))},
				"ETag":           {"\"etag\""},
				"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
			}}, nil
		}
		return &http.Response{StatusCode: 404, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	case http.MethodGet:
		if body, ok := m.state[key]; ok {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(body)), Header: http.Header{
				"Content-Length": {fmt.Sprintf("%d", len(body))},
				"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
				"ETag":           {"\"etag\""},
			}}, nil
		}
		errXML := `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`
		return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(errXML)), Header: http.Header{"Content-Type": {"application/xml"}}}, nil
	}
	return &http.Response{StatusCode: 501, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func newMockS3(t *testing.T, prefix string, state map[string][]byte) *S3 {
	t.Helper()
	rt := &mockRoundTripper{state: state}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("cfg: %v", err)
	}
	client := awsS3.NewFromConfig(cfg, func(o *awsS3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
	})
	return &S3{client: client, bucket: "test-bucket", prefix: prefix}
}

func TestS3OpenAndExists(t *testing.T) {
	src := newMockS3(t, "", map[string][]byte{"cert.pdf": []byte("%PDF-1.4")})
	ctx := context.Background()

	ok, err := src.Exists(ctx, "cert.pdf")
	if err != nil || !ok {
		t.Fatalf("expected cert.pdf to exist, got ok=%v err=%v", ok, err)
	}
	ok, err = src.Exists(ctx, "missing.pdf")
	if err != nil || ok {
		t.Fatalf("expected missing.pdf absent without error, got ok=%v err=%v", ok, err)
	}
	data, err := src.Open(ctx, "cert.pdf")
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("open: %q %v", data, err)
	}
	_, err = src.Open(ctx, "missing.pdf")
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.Key != "missing.pdf" {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if src.Driver() != DriverS3 {
		t.Fatalf("expected s3 driver, got %s", src.Driver())
	}
}

func TestS3PrefixJoinsKeys(t *testing.T) {
	src := newMockS3(t, "setup/", map[string][]byte{"setup/logo.png": []byte("png")})
	ok, err := src.Exists(context.Background(), "logo.png")
	if err != nil || !ok {
		t.Fatalf("expected prefixed lookup to hit, got ok=%v err=%v", ok, err)
	}
	data, err := src.Open(context.Background(), "logo.png")
	if err != nil || string(data) != "png" {
		t.Fatalf("open via prefix: %q %v", data, err)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestNewS3WithStaticCredentials(t *testing.T) {
	src, err := NewS3(context.Background(), S3Config{
		Bucket:          "bkt",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if src.Driver() != DriverS3 {
		t.Fatalf("expected s3 driver")
	}
}

func TestOpenS3FromEnv(t *testing.T) {
	withEnv("LIMSCORE_ASSET_S3_BUCKET", "", func() {
		if _, err := OpenS3FromEnv(context.Background()); err == nil {
			t.Fatalf("expected error without bucket")
		}
	})
	withEnv("LIMSCORE_ASSET_S3_BUCKET", "env-bucket", func() {
		withEnv("LIMSCORE_ASSET_S3_REGION", "us-east-1", func() {
			withEnv("LIMSCORE_ASSET_S3_PREFIX", "setup", func() {
				src, err := OpenS3FromEnv(context.Background())
				if err != nil {
					t.Fatalf("OpenS3FromEnv: %v", err)
				}
				if src.prefix != "setup" || src.bucket != "env-bucket" {
					t.Fatalf("unexpected source %+v", src)
				}
			})
		})
	})
}
