package ipsets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	wafTypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type GetIPSetInput struct {
	RoleARN string
	Region  string
	Name    string
	Scope   wafTypes.Scope
}

// Get finds the IP set by name within its scope. An IP set with that name
// but without the ManagedBy tag is reported as UnmanagedResourceConflictError.
func (c *client) Get(ctx context.Context, input GetIPSetInput) (output IPSet, err error) {
	logger := log.FromContext(ctx).WithValues("ip-set-name", input.Name, "scope", input.Scope)
	logger.Info("Started getting IP set")
	defer func() {
		if err == nil {
			logger.Info("Finished getting IP set")
		} else if !errors.IsIPSetNotFound(err) {
			logger.Error(err, "Failed to get IP set")
		}
	}()

	if input.Region == "" {
		return IPSet{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Name == "" {
		return IPSet{}, microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}
	if input.Scope == "" {
		return IPSet{}, microerror.Maskf(errors.InvalidConfigError, "%T.Scope must not be empty", input)
	}

	optFn := c.assumeRoleClient.WAFV2(input.RoleARN, input.Region)

	//
	// Find the IP set summary by name
	//
	var summary *wafTypes.IPSetSummary
	wafInput := wafv2.ListIPSetsInput{
		Scope: input.Scope,
	}
	for summary == nil {
		wafOutput, err := c.wafClient.ListIPSets(ctx, &wafInput, optFn)
		if err != nil {
			return IPSet{}, microerror.Mask(err)
		}

		for i := range wafOutput.IPSets {
			if aws.ToString(wafOutput.IPSets[i].Name) == input.Name {
				summary = &wafOutput.IPSets[i]
				break
			}
		}

		if wafOutput.NextMarker == nil || aws.ToString(wafOutput.NextMarker) == aws.ToString(wafInput.NextMarker) {
			break
		}
		wafInput.NextMarker = wafOutput.NextMarker
	}

	if summary == nil {
		return IPSet{}, microerror.Maskf(errors.IPSetNotFoundError, "could not find IP set %q in scope %s", input.Name, input.Scope)
	}

	//
	// Read tags to check ownership
	//
	tagsInput := wafv2.ListTagsForResourceInput{
		ResourceARN: summary.ARN,
	}
	tagsOutput, err := c.wafClient.ListTagsForResource(ctx, &tagsInput, optFn)
	if err != nil {
		return IPSet{}, microerror.Mask(err)
	}

	resourceTags := map[string]string{}
	if tagsOutput.TagInfoForResource != nil {
		resourceTags = tags.FromWAF(tagsOutput.TagInfoForResource.TagList)
	}

	if !tags.IsManaged(resourceTags) {
		return IPSet{}, microerror.Maskf(errors.UnmanagedResourceConflictError, "IP set %q (%s) in scope %s is not tagged %s=%s", input.Name, aws.ToString(summary.Id), input.Scope, tags.ManagedByKey, tags.ManagedByValue)
	}

	output = IPSet{
		Id:        aws.ToString(summary.Id),
		ARN:       aws.ToString(summary.ARN),
		Name:      aws.ToString(summary.Name),
		Scope:     input.Scope,
		LockToken: aws.ToString(summary.LockToken),
		Tags:      resourceTags,
	}
	logger.Info("Got existing IP set", "ip-set-id", output.Id)

	return output, nil
}

type GetAddressesInput struct {
	RoleARN string
	Region  string
	Id      string
	Name    string
	Scope   wafTypes.Scope
}

type GetAddressesOutput struct {
	Addresses []string
	LockToken string
}

// GetAddresses reads the addresses of the IP set with a fresh lock token.
func (c *client) GetAddresses(ctx context.Context, input GetAddressesInput) (output GetAddressesOutput, err error) {
	logger := log.FromContext(ctx).WithValues("ip-set-id", input.Id)
	logger.Info("Started getting IP set addresses")
	defer func() {
		if err == nil {
			logger.Info("Finished getting IP set addresses", "count", len(output.Addresses))
		} else {
			logger.Error(err, "Failed to get IP set addresses")
		}
	}()

	if input.Region == "" {
		return GetAddressesOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Id == "" {
		return GetAddressesOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Id must not be empty", input)
	}
	if input.Name == "" {
		return GetAddressesOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}

	wafInput := wafv2.GetIPSetInput{
		Id:    aws.String(input.Id),
		Name:  aws.String(input.Name),
		Scope: input.Scope,
	}
	wafOutput, err := c.wafClient.GetIPSet(ctx, &wafInput, c.assumeRoleClient.WAFV2(input.RoleARN, input.Region))
	if errors.IsWAFNonexistentItem(err) {
		return GetAddressesOutput{}, microerror.Maskf(errors.IPSetNotFoundError, "IP set %q disappeared: %s", input.Id, err)
	} else if err != nil {
		return GetAddressesOutput{}, microerror.Mask(err)
	}

	output.LockToken = aws.ToString(wafOutput.LockToken)
	if wafOutput.IPSet != nil {
		output.Addresses = wafOutput.IPSet.Addresses
	}

	return output, nil
}
