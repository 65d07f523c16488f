package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (c *captureS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.input = params
	if c.err != nil {
		return nil, c.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveAnalysisKeyAndBody(t *testing.T) {
	capture := &captureS3{}
	a := &S3Archiver{client: capture, bucket: "homeroom-archive"}

	err := a.ArchiveAnalysis(context.Background(), "owner-1", "em-1", "an-1", []byte(`{"events":[]}`))
	require.NoError(t, err)

	require.NotNil(t, capture.input)
	assert.Equal(t, "homeroom-archive", *capture.input.Bucket)
	assert.Equal(t, "analyses/owner-1/em-1/an-1.json", *capture.input.Key)
	assert.Equal(t, "application/json", *capture.input.ContentType)

	body, err := io.ReadAll(capture.input.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[]}`, string(body))
}

func TestArchiveAnalysisWrapsError(t *testing.T) {
	capture := &captureS3{err: errors.New("access denied")}
	a := &S3Archiver{client: capture, bucket: "homeroom-archive"}

	err := a.ArchiveAnalysis(context.Background(), "owner-1", "em-1", "an-1", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
