package prefixlists

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/assumerole"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 2 * time.Minute
)

type Client interface {
	Get(ctx context.Context, input GetPrefixListInput) (PrefixList, error)
	GetEntries(ctx context.Context, input GetEntriesInput) ([]string, error)
	Create(ctx context.Context, input CreatePrefixListInput) (CreatePrefixListOutput, error)
	Update(ctx context.Context, input UpdatePrefixListInput) (UpdatePrefixListOutput, error)
	Share(ctx context.Context, input SharePrefixListInput) error
}

// EC2API is the subset of the EC2 API used to manage prefix lists.
type EC2API interface {
	tags.EC2API
	DescribeManagedPrefixLists(ctx context.Context, params *ec2.DescribeManagedPrefixListsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error)
	GetManagedPrefixListEntries(ctx context.Context, params *ec2.GetManagedPrefixListEntriesInput, optFns ...func(*ec2.Options)) (*ec2.GetManagedPrefixListEntriesOutput, error)
	CreateManagedPrefixList(ctx context.Context, params *ec2.CreateManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.CreateManagedPrefixListOutput, error)
	ModifyManagedPrefixList(ctx context.Context, params *ec2.ModifyManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.ModifyManagedPrefixListOutput, error)
}

// RAMAPI is the subset of the RAM API used to share prefix lists.
type RAMAPI interface {
	GetResourceShares(ctx context.Context, params *ram.GetResourceSharesInput, optFns ...func(*ram.Options)) (*ram.GetResourceSharesOutput, error)
	CreateResourceShare(ctx context.Context, params *ram.CreateResourceShareInput, optFns ...func(*ram.Options)) (*ram.CreateResourceShareOutput, error)
	ListResources(ctx context.Context, params *ram.ListResourcesInput, optFns ...func(*ram.Options)) (*ram.ListResourcesOutput, error)
	AssociateResourceShare(ctx context.Context, params *ram.AssociateResourceShareInput, optFns ...func(*ram.Options)) (*ram.AssociateResourceShareOutput, error)
}

type Config struct {
	EC2Client        EC2API
	RAMClient        RAMAPI
	AssumeRoleClient assumerole.Client

	// PollInterval and PollTimeout bound the wait for a prefix list to
	// settle after a create or modify call.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewClient(config Config) (Client, error) {
	if config.EC2Client == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.EC2Client must not be empty", config)
	}
	if config.RAMClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.RAMClient must not be empty", config)
	}
	if config.AssumeRoleClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.AssumeRoleClient must not be empty", config)
	}
	if config.PollInterval == 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = defaultPollTimeout
	}

	tagsClient, err := tags.NewClient(config.EC2Client, config.AssumeRoleClient)
	if err != nil {
		return nil, microerror.Mask(err)
	}

	return &client{
		ec2Client:        config.EC2Client,
		ramClient:        config.RAMClient,
		assumeRoleClient: config.AssumeRoleClient,
		tagsClient:       tagsClient,
		pollInterval:     config.PollInterval,
		pollTimeout:      config.PollTimeout,
	}, nil
}

type client struct {
	ec2Client        EC2API
	ramClient        RAMAPI
	tagsClient       tags.Client
	assumeRoleClient assumerole.Client
	pollInterval     time.Duration
	pollTimeout      time.Duration
}
