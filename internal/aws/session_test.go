package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
)

type mockSTSAPI struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (m *mockSTSAPI) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return m.out, m.err
}

func TestAccountID(t *testing.T) {
	ok := &mockSTSAPI{out: &sts.GetCallerIdentityOutput{Account: awssdk.String("123456789012")}}
	assert.Equal(t, "123456789012", AccountID(context.Background(), ok))

	failing := &mockSTSAPI{err: errors.New("no credentials")}
	assert.Equal(t, "", AccountID(context.Background(), failing))
}
