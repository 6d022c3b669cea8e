package prefixlists

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type UpdatePrefixListInput struct {
	RoleARN        string
	Region         string
	PrefixListId   string
	CurrentVersion int64
	// MaxEntries, when set, is applied before any entry is touched.
	MaxEntries    int32
	AddEntries    []string
	RemoveEntries []string
	// Tags are created or overwritten once the entries are updated.
	Tags map[string]string
}

type UpdatePrefixListOutput struct {
	Version    int64
	MaxEntries int32
}

// Update raises the prefix list capacity when asked to, then adds and removes
// entries. When the capacity cannot be raised the entries are left untouched
// and CapacityInsufficientError is returned.
func (c *client) Update(ctx context.Context, input UpdatePrefixListInput) (output UpdatePrefixListOutput, err error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-id", input.PrefixListId)
	logger.Info("Started updating prefix list")
	defer func() {
		if err == nil {
			logger.Info("Finished updating prefix list", "version", output.Version)
		} else {
			logger.Error(err, "Failed to update prefix list")
		}
	}()

	if input.Region == "" {
		return UpdatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.PrefixListId == "" {
		return UpdatePrefixListOutput{}, microerror.Maskf(errors.PrefixListIdNotSetError, "%T.PrefixListId must not be empty", input)
	}
	if input.CurrentVersion == 0 {
		return UpdatePrefixListOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.CurrentVersion must not be empty", input)
	}

	output.Version = input.CurrentVersion

	//
	// Raise capacity first, entries must not be modified if this fails
	//
	if input.MaxEntries > 0 {
		logger.Info("Raising prefix list capacity", "max-entries", input.MaxEntries)
		ec2Input := ec2.ModifyManagedPrefixListInput{
			PrefixListId: aws.String(input.PrefixListId),
			MaxEntries:   aws.Int32(input.MaxEntries),
		}
		_, err = c.ec2Client.ModifyManagedPrefixList(ctx, &ec2Input, c.assumeRoleClient.EC2(input.RoleARN, input.Region))
		if err != nil {
			return UpdatePrefixListOutput{}, microerror.Maskf(errors.CapacityInsufficientError, "could not raise max entries of %q to %d: %s", input.PrefixListId, input.MaxEntries, err)
		}

		settled, err := c.waitForStable(ctx, input.RoleARN, input.Region, input.PrefixListId)
		if err != nil {
			return UpdatePrefixListOutput{}, microerror.Maskf(errors.CapacityInsufficientError, "max entries of %q were not raised to %d: %s", input.PrefixListId, input.MaxEntries, err)
		}
		if settled.MaxEntries < input.MaxEntries {
			return UpdatePrefixListOutput{}, microerror.Maskf(errors.CapacityInsufficientError, "max entries of %q is %d after raising it to %d", input.PrefixListId, settled.MaxEntries, input.MaxEntries)
		}

		output.Version = settled.Version
		output.MaxEntries = settled.MaxEntries
	}

	//
	// Add and remove entries
	//
	if len(input.AddEntries) > 0 || len(input.RemoveEntries) > 0 {
		version, err := c.modifyEntries(ctx, input.RoleARN, input.Region, input.PrefixListId, output.Version, input.AddEntries, input.RemoveEntries)
		if err != nil {
			return UpdatePrefixListOutput{}, microerror.Mask(err)
		}
		output.Version = version
	}

	//
	// Refresh tags
	//
	createTagsInput := tags.CreateTagsInput{
		RoleARN:    input.RoleARN,
		Region:     input.Region,
		ResourceId: input.PrefixListId,
		Tags:       input.Tags,
	}
	err = c.tagsClient.Create(ctx, createTagsInput)
	if err != nil {
		return UpdatePrefixListOutput{}, microerror.Maskf(errors.ResourceUpdateError, "could not tag prefix list %q: %s", input.PrefixListId, err)
	}

	return output, nil
}

// modifyEntries applies additions and removals in calls of at most
// maxEntriesPerCall of each, waiting for every modification to settle before
// the next one. Pairing additions with removals keeps the entry count between
// the old and the new count. It returns the resulting version.
func (c *client) modifyEntries(ctx context.Context, roleArn, region, prefixListId string, version int64, add, remove []string) (int64, error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-id", prefixListId)

	addBatches := chunk(add, maxEntriesPerCall)
	removeBatches := chunk(remove, maxEntriesPerCall)

	calls := len(addBatches)
	if len(removeBatches) > calls {
		calls = len(removeBatches)
	}

	for i := 0; i < calls; i++ {
		ec2Input := ec2.ModifyManagedPrefixListInput{
			PrefixListId:   aws.String(prefixListId),
			CurrentVersion: aws.Int64(version),
		}
		if i < len(addBatches) {
			ec2Input.AddEntries = toAddEntries(addBatches[i])
		}
		if i < len(removeBatches) {
			ec2Input.RemoveEntries = toRemoveEntries(removeBatches[i])
		}

		logger.Info("Modifying prefix list entries", "current-version", version, "add", len(ec2Input.AddEntries), "remove", len(ec2Input.RemoveEntries))
		_, err := c.ec2Client.ModifyManagedPrefixList(ctx, &ec2Input, c.assumeRoleClient.EC2(roleArn, region))
		if errors.IsEC2PrefixListMaxEntriesExceeded(err) {
			return 0, microerror.Maskf(errors.CapacityInsufficientError, "prefix list %q cannot hold the entries: %s", prefixListId, err)
		} else if err != nil {
			return 0, microerror.Maskf(errors.ResourceUpdateError, "could not modify entries of prefix list %q: %s", prefixListId, err)
		}

		settled, err := c.waitForStable(ctx, roleArn, region, prefixListId)
		if err != nil {
			return 0, microerror.Mask(err)
		}
		version = settled.Version
	}

	return version, nil
}
