package scriptstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"scenecore/pkg/scene"
)

// S3 stores script source in an S3-compatible bucket (AWS S3 or MinIO).
// Script ids map to object keys directly; the content hash travels as
// object metadata so conditional writes avoid downloading the payload.
type S3 struct {
	client *s3.Client
	bucket string
}

const s3HashMetadataKey = "content-hash"

// S3Config holds explicit construction parameters (mostly for tests). For
// prod we rely primarily on environment variables.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// NewS3 creates an S3 script store from S3Config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(provider))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
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
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

// OpenS3FromEnv constructs an S3 script store from process environment.
//
//	SCENECORE_SCRIPT_S3_BUCKET=<bucket> (required)
//	SCENECORE_SCRIPT_S3_REGION=<region> (default us-east-1)
//	SCENECORE_SCRIPT_S3_ENDPOINT=<url> (optional, for MinIO)
//	SCENECORE_SCRIPT_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)
func OpenS3FromEnv(ctx context.Context) (*S3, error) {
	bucket := os.Getenv("SCENECORE_SCRIPT_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("SCENECORE_SCRIPT_S3_BUCKET required for s3 driver")
	}
	cfg := S3Config{
		Bucket:    bucket,
		Region:    os.Getenv("SCENECORE_SCRIPT_S3_REGION"),
		Endpoint:  os.Getenv("SCENECORE_SCRIPT_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("SCENECORE_SCRIPT_S3_PATH_STYLE"), "true"),
	}
	return NewS3(ctx, cfg)
}

// Read implements Store.
func (s *S3) Read(ctx context.Context, id string) (Content, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &id})
	if err != nil {
		if isS3NotFound(err) {
			return Content{}, scene.NotFoundError{Kind: "script", ID: id}
		}
		return Content{}, scene.IOError{Op: "read script", Err: err}
	}
	defer func() { _ = out.Body.Close() }()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return Content{}, scene.IOError{Op: "read script", Err: err}
	}
	code := string(raw)
	return Content{Code: code, Hash: scene.HashContent(code)}, nil
}

// Write implements Store.
func (s *S3) Write(ctx context.Context, id, code, expectedHash string) (Content, error) {
	if expectedHash != "" {
		head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &id})
		switch {
		case err == nil:
			if err := verifyExpected(id, expectedHash, head.Metadata[s3HashMetadataKey]); err != nil {
				return Content{}, err
			}
		case isS3NotFound(err):
			// New object, nothing to compare against.
		default:
			return Content{}, scene.IOError{Op: "write script", Err: err}
		}
	}
	c := Content{Code: code, Hash: scene.HashContent(code)}
	input := &s3.PutObjectInput{
		Bucket:   &s.bucket,
		Key:      &id,
		Body:     strings.NewReader(code),
		Metadata: map[string]string{s3HashMetadataKey: c.Hash},
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Content{}, scene.IOError{Op: "write script", Err: err}
	}
	return c, nil
}

// Delete implements Store.
func (s *S3) Delete(ctx context.Context, id string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &id})
	if isS3NotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, scene.IOError{Op: "delete script", Err: err}
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &id}); err != nil {
		return false, scene.IOError{Op: "delete script", Err: err}
	}
	return true, nil
}

// List implements Store.
func (s *S3) List(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, ContinuationToken: token})
		if err != nil {
			return nil, scene.IOError{Op: "list scripts", Err: err}
		}
		for _, obj := range out.Contents {
			ids = append(ids, aws.ToString(obj.Key))
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(ids)
	return ids, nil
}

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
