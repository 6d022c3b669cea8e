package prefixlists

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type GetPrefixListInput struct {
	RoleARN string
	Region  string
	Name    string
}

// Get returns the managed prefix list with the given name. Prefix lists with
// that name but without the ManagedBy tag are ignored.
func (c *client) Get(ctx context.Context, input GetPrefixListInput) (output PrefixList, err error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-name", input.Name)
	logger.Info("Started getting prefix list")
	defer func() {
		if err == nil {
			logger.Info("Finished getting prefix list")
		} else if !errors.IsPrefixListNotFound(err) {
			logger.Error(err, "Failed to get prefix list")
		}
	}()

	if input.Region == "" {
		return PrefixList{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Name == "" {
		return PrefixList{}, microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}

	ec2Input := ec2.DescribeManagedPrefixListsInput{
		Filters: []ec2Types.Filter{
			{
				Name:   aws.String("prefix-list-name"),
				Values: []string{input.Name},
			},
		},
	}

	var managed []PrefixList
	unmanaged := 0
	paginator := ec2.NewDescribeManagedPrefixListsPaginator(c.ec2Client, &ec2Input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, c.assumeRoleClient.EC2(input.RoleARN, input.Region))
		if err != nil {
			return PrefixList{}, microerror.Mask(err)
		}

		for _, pl := range page.PrefixLists {
			prefixList := toPrefixList(pl)
			if prefixList.Name != input.Name {
				continue
			}
			if !tags.IsManaged(prefixList.Tags) {
				unmanaged++
				continue
			}
			managed = append(managed, prefixList)
		}
	}

	if unmanaged > 0 {
		logger.Info("Ignoring prefix lists not managed by this updater", "count", unmanaged)
	}

	if len(managed) == 0 {
		return PrefixList{}, microerror.Maskf(errors.PrefixListNotFoundError, "could not find managed prefix list %q", input.Name)
	} else if len(managed) > 1 {
		ids := make([]string, 0, len(managed))
		for _, pl := range managed {
			ids = append(ids, pl.PrefixListId)
		}
		return PrefixList{}, microerror.Maskf(errors.PrefixListConflictError, "found %d managed prefix lists named %q: %v", len(managed), input.Name, ids)
	}

	output = managed[0]
	logger.Info("Got existing prefix list", "prefix-list-id", output.PrefixListId, "version", output.Version, "max-entries", output.MaxEntries, "state", output.State)

	return output, nil
}

type GetEntriesInput struct {
	RoleARN      string
	Region       string
	PrefixListId string
	// Version to read entries at. Zero reads the current version.
	Version int64
}

// GetEntries returns the CIDRs of all entries of the prefix list.
func (c *client) GetEntries(ctx context.Context, input GetEntriesInput) (entries []string, err error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-id", input.PrefixListId)
	logger.Info("Started getting prefix list entries")
	defer func() {
		if err == nil {
			logger.Info("Finished getting prefix list entries", "count", len(entries))
		} else {
			logger.Error(err, "Failed to get prefix list entries")
		}
	}()

	if input.Region == "" {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.PrefixListId == "" {
		return nil, microerror.Maskf(errors.PrefixListIdNotSetError, "%T.PrefixListId must not be empty", input)
	}

	ec2Input := ec2.GetManagedPrefixListEntriesInput{
		PrefixListId: aws.String(input.PrefixListId),
	}
	if input.Version > 0 {
		ec2Input.TargetVersion = aws.Int64(input.Version)
	}

	paginator := ec2.NewGetManagedPrefixListEntriesPaginator(c.ec2Client, &ec2Input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, c.assumeRoleClient.EC2(input.RoleARN, input.Region))
		if err != nil {
			return nil, microerror.Mask(err)
		}

		for _, entry := range page.Entries {
			entries = append(entries, aws.ToString(entry.Cidr))
		}
	}

	return entries, nil
}

// describe reads a single prefix list by ID.
func (c *client) describe(ctx context.Context, roleArn, region, prefixListId string) (PrefixList, error) {
	ec2Input := ec2.DescribeManagedPrefixListsInput{
		PrefixListIds: []string{prefixListId},
	}

	ec2Output, err := c.ec2Client.DescribeManagedPrefixLists(ctx, &ec2Input, c.assumeRoleClient.EC2(roleArn, region))
	if err != nil {
		return PrefixList{}, microerror.Mask(err)
	}

	if len(ec2Output.PrefixLists) == 0 {
		return PrefixList{}, microerror.Maskf(errors.PrefixListNotFoundError, "could not find prefix list %q", prefixListId)
	}

	return toPrefixList(ec2Output.PrefixLists[0]), nil
}
