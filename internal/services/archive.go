package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"campus-vibe-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReportArchive is what gets stored for the safety team when a match is reported
type ReportArchive struct {
	Report     *models.MatchReport   `json:"report"`
	Match      *models.MutualMatch   `json:"match"`
	Transcript []*models.ChatMessage `json:"transcript"`
}

// ReportArchiver stores filed reports outside the primary database
type ReportArchiver interface {
	Archive(ctx context.Context, archive *ReportArchive) error
}

// S3ReportArchiver writes reports as JSON objects to S3
type S3ReportArchiver struct {
	s3Client *s3.Client
	s3Bucket string
}

// S3Options configures the archive bucket. Keys and Endpoint are optional;
// without keys the default AWS credential chain is used.
type S3Options struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// NewS3ReportArchiver creates a new S3 report archiver
func NewS3ReportArchiver(ctx context.Context, o S3Options) (*S3ReportArchiver, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(o.Region),
	}
	if o.AccessKey != "" && o.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.Endpoint)
			opts.UsePathStyle = true
		}
	})

	return &S3ReportArchiver{
		s3Client: s3Client,
		s3Bucket: o.Bucket,
	}, nil
}

// ReportKey returns the object key of a report: reports/{match_id}/{report_id}.json
func ReportKey(report *models.MatchReport) string {
	return fmt.Sprintf("reports/%s/%s.json", report.MatchID, report.ID)
}

// Archive uploads the report with its transcript
func (a *S3ReportArchiver) Archive(ctx context.Context, archive *ReportArchive) error {
	body, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.s3Bucket),
		Key:         aws.String(ReportKey(archive.Report)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	return nil
}
