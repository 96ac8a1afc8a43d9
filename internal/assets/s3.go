package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"limscore/pkg/domain"
)

var _ domain.AssetSource = (*S3)(nil)

// S3Config holds explicit construction parameters. Static credentials are
// optional; when unset the default AWS chain applies. MinIO deployments
// usually set endpoint, path style and static credentials explicitly.
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string // optional key prefix prepended to every name
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// S3 reads assets from a single S3-compatible bucket (AWS S3 or MinIO).
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// Environment variables:
//
//	LIMSCORE_ASSET_DRIVER=s3
//	LIMSCORE_ASSET_S3_BUCKET=<bucket> (required)
//	LIMSCORE_ASSET_S3_REGION=<region> (default us-east-1)
//	LIMSCORE_ASSET_S3_PREFIX=<key prefix> (optional)
//	LIMSCORE_ASSET_S3_ENDPOINT=<url> (optional, for MinIO)
//	LIMSCORE_ASSET_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// NewS3 creates an S3 asset source from S3Config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// OpenS3FromEnv constructs an S3 asset source from process environment.
func OpenS3FromEnv(ctx context.Context) (*S3, error) {
	bucket := os.Getenv("LIMSCORE_ASSET_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("LIMSCORE_ASSET_S3_BUCKET required for s3 driver")
	}
	cfg := S3Config{
		Bucket:    bucket,
		Region:    os.Getenv("LIMSCORE_ASSET_S3_REGION"),
		Prefix:    os.Getenv("LIMSCORE_ASSET_S3_PREFIX"),
		Endpoint:  os.Getenv("LIMSCORE_ASSET_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("LIMSCORE_ASSET_S3_PATH_STYLE"), "true"),
	}
	return NewS3(ctx, cfg)
}

// Driver returns the asset driver identifier.
func (s *S3) Driver() string { return DriverS3 }

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + name
}

// Open fetches the named object's contents.
func (s *S3) Open(ctx context.Context, name string) ([]byte, error) {
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound{Key: name}
		}
		return nil, err
	}
	defer func() { _ = out.Body.Close() }()
	return io.ReadAll(out.Body)
}

// Exists heads the named object, mapping 404s to a plain false.
func (s *S3) Exists(ctx context.Context, name string) (bool, error) {
	key := s.key(name)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFound covers both modelled not-found errors and the generic codes
// some S3-compatible endpoints return.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
