// Package archive writes raw provider responses to S3 for audit and
// replay. Archival is best effort; the analysis pipeline never fails on
// an archive error.
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of the S3 client the archiver uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver stores raw extraction payloads under
// analyses/{owner}/{email}/{analysis}.json.
type S3Archiver struct {
	client s3API
	bucket string
}

// NewS3Archiver creates an archiver against the given bucket using the
// default AWS credential chain.
func NewS3Archiver(ctx context.Context, bucket, region string) (*S3Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Archiver{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// ArchiveAnalysis writes one raw provider response.
func (a *S3Archiver) ArchiveAnalysis(ctx context.Context, ownerID, emailID, analysisID string, raw []byte) error {
	key := fmt.Sprintf("analyses/%s/%s/%s.json", ownerID, emailID, analysisID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}
