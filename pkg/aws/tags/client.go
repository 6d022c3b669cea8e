package tags

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/assumerole"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// EC2API is the subset of the EC2 API used to tag resources.
type EC2API interface {
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

type Client interface {
	Create(ctx context.Context, input CreateTagsInput) error
}

func NewClient(ec2Client EC2API, assumeRoleClient assumerole.Client) (Client, error) {
	if ec2Client == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "ec2Client must not be empty")
	}
	if assumeRoleClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "assumeRoleClient must not be empty")
	}

	return &client{
		ec2Client:        ec2Client,
		assumeRoleClient: assumeRoleClient,
	}, nil
}

type client struct {
	ec2Client        EC2API
	assumeRoleClient assumerole.Client
}

type CreateTagsInput struct {
	RoleARN    string
	Region     string
	ResourceId string
	Tags       map[string]string
}

// Create adds or overwrites the given tags on an EC2 resource. Tags not in
// the input are left untouched.
func (c *client) Create(ctx context.Context, input CreateTagsInput) (err error) {
	logger := log.FromContext(ctx).WithValues("resource-id", input.ResourceId)
	logger.Info("Started creating tags")
	defer func() {
		if err == nil {
			logger.Info("Finished creating tags")
		} else {
			logger.Error(err, "Failed to create tags")
		}
	}()

	if input.Region == "" {
		return microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.ResourceId == "" {
		return microerror.Maskf(errors.InvalidConfigError, "%T.ResourceId must not be empty", input)
	}
	if len(input.Tags) == 0 {
		logger.Info("No tags to create")
		return nil
	}

	ec2Input := ec2.CreateTagsInput{
		Resources: []string{input.ResourceId},
		Tags:      ToEC2(input.Tags),
	}

	_, err = c.ec2Client.CreateTags(ctx, &ec2Input, c.assumeRoleClient.EC2(input.RoleARN, input.Region))
	if err != nil {
		return microerror.Mask(err)
	}

	return nil
}
