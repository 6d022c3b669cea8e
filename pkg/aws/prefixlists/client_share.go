package prefixlists

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type SharePrefixListInput struct {
	RoleARN       string
	Region        string
	Name          string
	PrefixListArn string
	// Principal the prefix list is shared with, usually an organization ARN.
	Principal string
	Tags      map[string]string
}

// Share makes sure a RAM resource share named like the prefix list exists
// and contains the prefix list. It is safe to call on every run.
func (c *client) Share(ctx context.Context, input SharePrefixListInput) (err error) {
	logger := log.FromContext(ctx).WithValues("resource-share-name", input.Name, "principal", input.Principal)
	logger.Info("Started sharing prefix list")
	defer func() {
		if err == nil {
			logger.Info("Finished sharing prefix list")
		} else {
			logger.Error(err, "Failed to share prefix list")
		}
	}()

	if input.Region == "" {
		return microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Name == "" {
		return microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}
	if input.PrefixListArn == "" {
		return microerror.Maskf(errors.InvalidConfigError, "%T.PrefixListArn must not be empty", input)
	}
	if input.Principal == "" {
		return microerror.Maskf(errors.InvalidConfigError, "%T.Principal must not be empty", input)
	}

	//
	// Look up an existing share
	//
	ramInput := ram.GetResourceSharesInput{
		ResourceOwner:       ramTypes.ResourceOwnerSelf,
		Name:                aws.String(input.Name),
		ResourceShareStatus: ramTypes.ResourceShareStatusActive,
	}
	paginator := ram.NewGetResourceSharesPaginator(c.ramClient, &ramInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, c.assumeRoleClient.RAM(input.RoleARN, input.Region))
		if err != nil {
			return microerror.Mask(err)
		}

		for _, share := range page.ResourceShares {
			if aws.ToString(share.Name) != input.Name || !tags.IsManaged(tags.FromRAM(share.Tags)) {
				continue
			}

			shareArn := aws.ToString(share.ResourceShareArn)
			logger.Info("Resource share already exists", "resource-share-arn", shareArn)

			err = c.associate(ctx, input, shareArn)
			if err != nil {
				return microerror.Mask(err)
			}

			return nil
		}
	}

	//
	// Create the share
	//
	createInput := ram.CreateResourceShareInput{
		Name:                    aws.String(input.Name),
		ResourceArns:            []string{input.PrefixListArn},
		Principals:              []string{input.Principal},
		AllowExternalPrincipals: aws.Bool(false),
		Tags:                    tags.ToRAM(input.Tags),
	}
	createOutput, err := c.ramClient.CreateResourceShare(ctx, &createInput, c.assumeRoleClient.RAM(input.RoleARN, input.Region))
	if err != nil {
		return microerror.Maskf(errors.ResourceCreateError, "could not share prefix list %q: %s", input.PrefixListArn, err)
	}

	if createOutput.ResourceShare != nil {
		logger.Info("Created resource share", "resource-share-arn", aws.ToString(createOutput.ResourceShare.ResourceShareArn))
	}

	return nil
}

// associate adds the prefix list to an existing share unless it is already
// part of it.
func (c *client) associate(ctx context.Context, input SharePrefixListInput, shareArn string) error {
	logger := log.FromContext(ctx).WithValues("resource-share-arn", shareArn)

	listInput := ram.ListResourcesInput{
		ResourceOwner:     ramTypes.ResourceOwnerSelf,
		ResourceArns:      []string{input.PrefixListArn},
		ResourceShareArns: []string{shareArn},
	}
	paginator := ram.NewListResourcesPaginator(c.ramClient, &listInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, c.assumeRoleClient.RAM(input.RoleARN, input.Region))
		if err != nil {
			return microerror.Mask(err)
		}

		for _, resource := range page.Resources {
			if aws.ToString(resource.Arn) == input.PrefixListArn && aws.ToString(resource.ResourceShareArn) == shareArn {
				return nil
			}
		}
	}

	logger.Info("Associating prefix list with resource share", "prefix-list-arn", input.PrefixListArn)
	associateInput := ram.AssociateResourceShareInput{
		ResourceShareArn: aws.String(shareArn),
		ResourceArns:     []string{input.PrefixListArn},
		Principals:       []string{input.Principal},
	}
	_, err := c.ramClient.AssociateResourceShare(ctx, &associateInput, c.assumeRoleClient.RAM(input.RoleARN, input.Region))
	if err != nil {
		return microerror.Maskf(errors.ResourceUpdateError, "could not add prefix list %q to resource share %q: %s", input.PrefixListArn, shareArn, err)
	}

	return nil
}
