package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	awsecr "tasnim.dev/hostprep/internal/aws/ecr"
	awss3 "tasnim.dev/hostprep/internal/aws/s3"
)

// ServiceClient bundles the AWS clients provisioning talks to.
type ServiceClient struct {
	ECR    *awsecr.Client
	S3     *awss3.Client
	STS    STSAPI
	Region string
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &ServiceClient{
		ECR:    awsecr.NewClient(ecr.NewFromConfig(cfg)),
		S3:     awss3.NewClient(awss3sdk.NewFromConfig(cfg)),
		STS:    sts.NewFromConfig(cfg),
		Region: cfg.Region,
	}, nil
}

// AccountID resolves the caller's account, or "" when STS is unreachable.
func (c *ServiceClient) AccountID(ctx context.Context) string {
	return AccountID(ctx, c.STS)
}
