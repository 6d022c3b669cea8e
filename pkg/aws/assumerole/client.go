package assumerole

import (
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// Client builds per-call option funcs that pin the region and, when a role
// ARN is given, swap in credentials of the assumed role.
type Client interface {
	EC2(roleArn, region string) func(o *ec2.Options)
	WAFV2(roleArn, region string) func(o *wafv2.Options)
	RAM(roleArn, region string) func(o *ram.Options)
}

func NewClient(stsCredsAssumeRoleAPIClient stscreds.AssumeRoleAPIClient) (Client, error) {
	if stsCredsAssumeRoleAPIClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "stsCredsAssumeRoleAPIClient must not be empty")
	}

	return &client{
		stsCredsAssumeRoleAPIClient: stsCredsAssumeRoleAPIClient,
		providers:                   map[string]aws.CredentialsProvider{},
	}, nil
}

type client struct {
	stsCredsAssumeRoleAPIClient stscreds.AssumeRoleAPIClient

	mu sync.Mutex
	// role ARN -> cached credentials, so that concurrent units share one
	// assumed-role session per role
	providers map[string]aws.CredentialsProvider
}

func (c *client) credentials(roleArn string) aws.CredentialsProvider {
	c.mu.Lock()
	defer c.mu.Unlock()

	if provider, ok := c.providers[roleArn]; ok {
		return provider
	}

	assumeRoleProvider := stscreds.NewAssumeRoleProvider(c.stsCredsAssumeRoleAPIClient, roleArn)
	provider := aws.NewCredentialsCache(assumeRoleProvider)
	c.providers[roleArn] = provider

	return provider
}

func (c *client) EC2(roleArn, region string) func(o *ec2.Options) {
	return func(o *ec2.Options) {
		if roleArn != "" {
			o.Credentials = c.credentials(roleArn)
		}
		o.Region = region
	}
}

func (c *client) WAFV2(roleArn, region string) func(o *wafv2.Options) {
	return func(o *wafv2.Options) {
		if roleArn != "" {
			o.Credentials = c.credentials(roleArn)
		}
		o.Region = region
	}
}

func (c *client) RAM(roleArn, region string) func(o *ram.Options) {
	return func(o *ram.Options) {
		if roleArn != "" {
			o.Credentials = c.credentials(roleArn)
		}
		o.Region = region
	}
}
