package ecr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

type ECRAPI interface {
	CreateRepository(ctx context.Context, params *awsecr.CreateRepositoryInput, optFns ...func(*awsecr.Options)) (*awsecr.CreateRepositoryOutput, error)
	DescribeRepositories(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error)
	DescribeImages(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error)
	GetAuthorizationToken(ctx context.Context, params *awsecr.GetAuthorizationTokenInput, optFns ...func(*awsecr.Options)) (*awsecr.GetAuthorizationTokenOutput, error)
}

var (
	// ErrRepositoryExists is returned by CreateRepository when the name is taken
	// and the client was not told to reuse existing repositories.
	ErrRepositoryExists = errors.New("repository already exists")

	// ErrNoAuthorizationData means GetAuthorizationToken returned nothing usable.
	ErrNoAuthorizationData = errors.New("no authorization data returned")
)

type Client struct {
	api           ECRAPI
	reuseExisting bool
}

func NewClient(api ECRAPI) *Client {
	return &Client{api: api}
}

// ReuseExisting makes CreateRepository resolve the URI of an existing
// repository instead of failing.
func (c *Client) ReuseExisting(reuse bool) *Client {
	c.reuseExisting = reuse
	return c
}

// CreateRepository creates name and returns its URI.
func (c *Client) CreateRepository(ctx context.Context, name string) (string, error) {
	out, err := c.api.CreateRepository(ctx, &awsecr.CreateRepositoryInput{
		RepositoryName: aws.String(name),
	})
	if err != nil {
		var exists *ecrtypes.RepositoryAlreadyExistsException
		if errors.As(err, &exists) {
			if !c.reuseExisting {
				return "", fmt.Errorf("CreateRepository(%s): %w: %w", name, ErrRepositoryExists, err)
			}
			repo, lookupErr := c.LookupRepository(ctx, name)
			if lookupErr != nil {
				return "", lookupErr
			}
			return repo.URI, nil
		}
		return "", fmt.Errorf("CreateRepository(%s): %w", name, err)
	}
	if out.Repository == nil || aws.ToString(out.Repository.RepositoryUri) == "" {
		return "", fmt.Errorf("CreateRepository(%s): response has no repository URI", name)
	}
	return aws.ToString(out.Repository.RepositoryUri), nil
}

// LookupRepository describes a single repository by name.
func (c *Client) LookupRepository(ctx context.Context, name string) (ECRRepo, error) {
	out, err := c.api.DescribeRepositories(ctx, &awsecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err != nil {
		return ECRRepo{}, fmt.Errorf("DescribeRepositories(%s): %w", name, err)
	}
	if len(out.Repositories) == 0 {
		return ECRRepo{}, fmt.Errorf("DescribeRepositories(%s): not found", name)
	}
	return toRepo(out.Repositories[0]), nil
}

// Credentials decodes a registry login from GetAuthorizationToken.
func (c *Client) Credentials(ctx context.Context) (Credentials, error) {
	out, err := c.api.GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return Credentials{}, fmt.Errorf("GetAuthorizationToken: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return Credentials{}, fmt.Errorf("GetAuthorizationToken: %w", ErrNoAuthorizationData)
	}

	data := out.AuthorizationData[0]
	raw, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return Credentials{}, fmt.Errorf("decoding authorization token: %w", err)
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok || user == "" || pass == "" {
		return Credentials{}, fmt.Errorf("decoding authorization token: malformed user:password pair")
	}

	return Credentials{
		Username: user,
		Password: pass,
		Endpoint: aws.ToString(data.ProxyEndpoint),
	}, nil
}

func (c *Client) ListRepositories(ctx context.Context) ([]ECRRepo, error) {
	var repos []ECRRepo
	var nextToken *string

	for {
		out, err := c.api.DescribeRepositories(ctx, &awsecr.DescribeRepositoriesInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeRepositories: %w", err)
		}

		for _, r := range out.Repositories {
			repos = append(repos, toRepo(r))
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sort.Slice(repos, func(i, j int) bool {
		return repos[i].Name < repos[j].Name
	})

	return repos, nil
}

func (c *Client) ListImages(ctx context.Context, repoName string) ([]ECRImage, error) {
	var images []ECRImage
	var nextToken *string

	for {
		out, err := c.api.DescribeImages(ctx, &awsecr.DescribeImagesInput{
			RepositoryName: aws.String(repoName),
			NextToken:      nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeImages: %w", err)
		}

		for _, img := range out.ImageDetails {
			digest := aws.ToString(img.ImageDigest)
			if parts := strings.SplitN(digest, ":", 2); len(parts) == 2 && len(parts[1]) > 12 {
				digest = parts[0] + ":" + parts[1][:12]
			}

			var pushedAt time.Time
			if img.ImagePushedAt != nil {
				pushedAt = *img.ImagePushedAt
			}

			var sizeMB float64
			if img.ImageSizeInBytes != nil {
				sizeMB = float64(*img.ImageSizeInBytes) / (1024 * 1024)
			}

			images = append(images, ECRImage{
				Tags:     img.ImageTags,
				Digest:   digest,
				SizeMB:   sizeMB,
				PushedAt: pushedAt,
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].PushedAt.After(images[j].PushedAt)
	})

	return images, nil
}

func toRepo(r ecrtypes.Repository) ECRRepo {
	var createdAt time.Time
	if r.CreatedAt != nil {
		createdAt = *r.CreatedAt
	}
	return ECRRepo{
		Name:      aws.ToString(r.RepositoryName),
		ARN:       aws.ToString(r.RepositoryArn),
		URI:       aws.ToString(r.RepositoryUri),
		CreatedAt: createdAt,
	}
}
