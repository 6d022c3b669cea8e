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

type CreateIPSetInput struct {
	RoleARN        string
	Region         string
	Name           string
	Scope          wafTypes.Scope
	AddressVersion wafTypes.IPAddressVersion
	Addresses      []string
	Tags           map[string]string
}

type CreateIPSetOutput struct {
	Id        string
	ARN       string
	LockToken string
}

func (c *client) Create(ctx context.Context, input CreateIPSetInput) (output CreateIPSetOutput, err error) {
	logger := log.FromContext(ctx).WithValues("ip-set-name", input.Name, "scope", input.Scope)
	logger.Info("Started creating IP set")
	defer func() {
		if err == nil {
			logger.Info("Finished creating IP set", "ip-set-id", output.Id)
		} else {
			logger.Error(err, "Failed to create IP set")
		}
	}()

	if input.Region == "" {
		return CreateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Name == "" {
		return CreateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}
	if input.Scope == "" {
		return CreateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Scope must not be empty", input)
	}
	if input.AddressVersion == "" {
		return CreateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.AddressVersion must not be empty", input)
	}

	wafInput := wafv2.CreateIPSetInput{
		Name:             aws.String(input.Name),
		Scope:            input.Scope,
		IPAddressVersion: input.AddressVersion,
		Addresses:        input.Addresses,
		Description:      aws.String(tags.Description),
		Tags:             tags.ToWAF(input.Tags),
	}
	wafOutput, err := c.wafClient.CreateIPSet(ctx, &wafInput, c.assumeRoleClient.WAFV2(input.RoleARN, input.Region))
	if errors.IsWAFDuplicateItem(err) {
		return CreateIPSetOutput{}, microerror.Maskf(errors.UnmanagedResourceConflictError, "IP set %q already exists in scope %s: %s", input.Name, input.Scope, err)
	} else if err != nil {
		return CreateIPSetOutput{}, microerror.Mask(err)
	}
	if wafOutput.Summary == nil {
		return CreateIPSetOutput{}, microerror.Maskf(errors.ResourceCreateError, "WAF returned no IP set for %q", input.Name)
	}

	output = CreateIPSetOutput{
		Id:        aws.ToString(wafOutput.Summary.Id),
		ARN:       aws.ToString(wafOutput.Summary.ARN),
		LockToken: aws.ToString(wafOutput.Summary.LockToken),
	}

	return output, nil
}
