package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3API struct {
	putObjectFunc func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

func (m *mockS3API) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	return m.putObjectFunc(ctx, params, optFns...)
}

func TestReportKey(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		prefix string
		want   string
	}{
		{"", "20260304T050607Z-run1.yaml"},
		{"hostprep", "hostprep/20260304T050607Z-run1.yaml"},
		{"a/b/", "a/b/20260304T050607Z-run1.yaml"},
	}

	for _, tt := range tests {
		got := ReportKey(tt.prefix, "run1", at)
		if got != tt.want {
			t.Errorf("ReportKey(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestPutReport(t *testing.T) {
	var gotBody []byte
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			assert.Equal(t, "reports", aws.ToString(params.Bucket))
			assert.Equal(t, "hostprep/r.yaml", aws.ToString(params.Key))
			assert.Equal(t, "application/yaml", aws.ToString(params.ContentType))
			gotBody, _ = io.ReadAll(params.Body)
			return &awss3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil
		},
	}

	obj, err := NewClient(mock).PutReport(context.Background(), "reports", "hostprep/r.yaml", []byte("steps: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "steps: []\n", string(gotBody))
	assert.Equal(t, `"abc"`, obj.ETag)
	assert.Equal(t, int64(10), obj.Size)
	assert.Equal(t, "s3://reports/hostprep/r.yaml", obj.URL())
}

func TestPutReport_Error(t *testing.T) {
	mock := &mockS3API{
		putObjectFunc: func(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
			return nil, errors.New("AccessDenied")
		},
	}

	_, err := NewClient(mock).PutReport(context.Background(), "reports", "k", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PutObject(reports/k)")
}
