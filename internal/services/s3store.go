package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore puts images in a bucket. The object key doubles as the file id.
type S3ImageStore struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

type S3Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	AccessKey     string
	SecretKey     string
}

func NewS3ImageStore(ctx context.Context, opts S3Options) (*S3ImageStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	base := opts.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
	return &S3ImageStore{client: client, bucket: opts.Bucket, publicBaseURL: strings.TrimRight(base, "/")}, nil
}

func (s *S3ImageStore) Upload(ctx context.Context, data []byte, name, folder string) (UploadedImage, error) {
	ext := path.Ext(name)
	base := Slugify(strings.TrimSuffix(name, ext))
	d := time.Now().UTC()
	key := path.Join(strings.Trim(folder, "/"), fmt.Sprintf("%d/%02d", d.Year(), d.Month()), base+"-"+uuid.NewString()[:8]+ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(http.DetectContentType(data)),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return UploadedImage{}, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return UploadedImage{URL: s.publicBaseURL + "/" + key, FileID: key}, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, fileID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", fileID, err)
	}
	return nil
}
