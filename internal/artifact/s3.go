// Package artifact stores finished test-plan documents in S3 so they can be
// downloaded later or fed to a test runner.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store uploads and fetches generated .jmx documents.
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore builds an S3-backed artifact store using the default credential
// chain.
func NewStore(ctx context.Context, bucket, region string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("artifact bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Key returns the object key for a project's document.
func Key(projectID, documentID string) string {
	return fmt.Sprintf("plans/%s/%s.jmx", projectID, documentID)
}

// Put uploads one document and returns its key.
func (s *Store) Put(ctx context.Context, projectID, documentID, xml string) (string, error) {
	key := Key(projectID, documentID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(xml)),
		ContentType: aws.String("application/xml"),
		Metadata: map[string]string{
			"generated-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload plan %s: %w", key, err)
	}
	return key, nil
}

// Get downloads one document by key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("download plan %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("read plan %s: %w", key, err)
	}
	return string(data), nil
}
