package prefixlists

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/giantswarm/microerror"
	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type CreatePrefixListInput struct {
	RoleARN       string
	Region        string
	Name          string
	AddressFamily string
	MaxEntries    int32
	Entries       []string
	Tags          map[string]string
}

type CreatePrefixListOutput struct {
	PrefixListId  string
	PrefixListArn string
	Version       int64
	MaxEntries    int32
}

// Create creates the prefix list with its first batch of entries and adds the
// remaining entries with follow-up modifications.
func (c *client) Create(ctx context.Context, input CreatePrefixListInput) (output CreatePrefixListOutput, err error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-name", input.Name)
	logger.Info("Started creating prefix list")
	defer func() {
		if err == nil {
			logger.Info("Finished creating prefix list", "prefix-list-id", output.PrefixListId)
		} else {
			logger.Error(err, "Failed to create prefix list")
		}
	}()

	if input.Region == "" {
		return CreatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Name == "" {
		return CreatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}
	if input.AddressFamily != AddressFamilyIPv4 && input.AddressFamily != AddressFamilyIPv6 {
		return CreatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.AddressFamily must be %q or %q, got %q", input, AddressFamilyIPv4, AddressFamilyIPv6, input.AddressFamily)
	}
	if len(input.Entries) == 0 {
		return CreatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Entries must not be empty", input)
	}
	if int(input.MaxEntries) < len(input.Entries) {
		return CreatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.MaxEntries %d is lower than the %d entries", input, input.MaxEntries, len(input.Entries))
	}

	batches := chunk(input.Entries, maxEntriesPerCall)

	ec2Input := ec2.CreateManagedPrefixListInput{
		AddressFamily:  aws.String(input.AddressFamily),
		MaxEntries:     aws.Int32(input.MaxEntries),
		PrefixListName: aws.String(input.Name),
		Entries:        toAddEntries(batches[0]),
		ClientToken:    aws.String(uuid.New().String()),
		TagSpecifications: []ec2Types.TagSpecification{
			tags.BuildParamsToTagSpecification(ec2Types.ResourceTypePrefixList, input.Tags),
		},
	}

	ec2Output, err := c.ec2Client.CreateManagedPrefixList(ctx, &ec2Input, c.assumeRoleClient.EC2(input.RoleARN, input.Region))
	if err != nil {
		return CreatePrefixListOutput{}, microerror.Mask(err)
	}
	if ec2Output.PrefixList == nil {
		return CreatePrefixListOutput{}, microerror.Maskf(errors.ResourceCreateError, "EC2 returned no prefix list for %q", input.Name)
	}

	created := toPrefixList(*ec2Output.PrefixList)
	output = CreatePrefixListOutput{
		PrefixListId:  created.PrefixListId,
		PrefixListArn: created.PrefixListArn,
		Version:       created.Version,
		MaxEntries:    created.MaxEntries,
	}
	logger.Info("Created prefix list", "prefix-list-id", output.PrefixListId, "max-entries", output.MaxEntries)

	//
	// Add the entries that did not fit into the create call
	//
	if len(batches) > 1 {
		settled, err := c.waitForStable(ctx, input.RoleARN, input.Region, output.PrefixListId)
		if err != nil {
			return output, microerror.Mask(err)
		}

		version, err := c.modifyEntries(ctx, input.RoleARN, input.Region, output.PrefixListId, settled.Version, input.Entries[maxEntriesPerCall:], nil)
		if err != nil {
			return output, microerror.Mask(err)
		}
		output.Version = version
	}

	return output, nil
}
