package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3API interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

type Client struct {
	api S3API
}

func NewClient(api S3API) *Client {
	return &Client{api: api}
}

// ReportKey builds <prefix>/<timestamp>-<runID>.yaml. An empty prefix puts
// the object at the bucket root.
func ReportKey(prefix, runID string, at time.Time) string {
	name := fmt.Sprintf("%s-%s.yaml", at.UTC().Format("20060102T150405Z"), runID)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// PutReport uploads a run report body and returns its s3:// location.
func (c *Client) PutReport(ctx context.Context, bucket, key string, body []byte) (Object, error) {
	out, err := c.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/yaml"),
	})
	if err != nil {
		return Object{}, fmt.Errorf("PutObject(%s/%s): %w", bucket, key, err)
	}
	return Object{
		Bucket: bucket,
		Key:    key,
		ETag:   aws.ToString(out.ETag),
		Size:   int64(len(body)),
	}, nil
}
