// Package aws stores blobs in S3 compatible object storage. Objects are keyed
// by the sha256 of their content, which is also their content id.
package aws

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/driver"
	"github.com/bountyboard/bounty-backend/types"
)

type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	GatewayURL      string
	Logger          *zap.Logger
}

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Store struct {
	api     objectAPI
	bucket  string
	gateway string
	lgr     *zap.Logger
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client, cfg), nil
}

func newStore(api objectAPI, cfg Config) *Store {
	lgr := cfg.Logger
	if lgr == nil {
		lgr = zap.NewNop()
	}
	gateway := cfg.GatewayURL
	if gateway == "" {
		gateway = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
	}
	return &Store{api: api, bucket: cfg.Bucket, gateway: gateway, lgr: lgr.With(zap.String("driver", "s3"))}
}

func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) UploadFile(ctx context.Context, name string, data []byte) (*driver.Upload, error) {
	return s.put(ctx, name, data, http.DetectContentType(data))
}

func (s *Store) UploadJSON(ctx context.Context, name string, v interface{}) (*driver.Upload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return s.put(ctx, name, data, "application/json")
}

func (s *Store) put(ctx context.Context, name string, data []byte, contentType string) (*driver.Upload, error) {
	id := contentID(data)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(id),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"name": slug.Make(name)},
	})
	if err != nil {
		s.lgr.Warn("Upload failed", zap.String("name", name), zap.Error(err))
		return nil, types.ErrExternalService.With(err, "failed to upload to object storage")
	}
	return &driver.Upload{ContentID: id, URL: s.URL(id)}, nil
}

func (s *Store) Fetch(ctx context.Context, id string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, driver.ErrNotFound
		}
		return nil, types.ErrExternalService.With(err, "failed to fetch from object storage")
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, types.ErrExternalService.With(err, "failed to read from object storage")
	}
	return data, nil
}

func (s *Store) URL(id string) string {
	return driver.GatewayURL(s.gateway, id)
}
