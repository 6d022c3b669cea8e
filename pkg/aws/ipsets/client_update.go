package ipsets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	wafTypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"
	"github.com/giantswarm/microerror"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type UpdateIPSetInput struct {
	RoleARN   string
	Region    string
	Id        string
	ARN       string
	Name      string
	Scope     wafTypes.Scope
	LockToken string
	// Addresses replace the whole membership of the IP set.
	Addresses []string
	// Tags are added or overwritten after the addresses are replaced.
	Tags map[string]string
}

type UpdateIPSetOutput struct {
	LockToken string
}

// Update replaces the addresses of the IP set. A stale lock token is
// refreshed and the update retried a few times before giving up.
func (c *client) Update(ctx context.Context, input UpdateIPSetInput) (output UpdateIPSetOutput, err error) {
	logger := log.FromContext(ctx).WithValues("ip-set-id", input.Id, "scope", input.Scope)
	logger.Info("Started updating IP set")
	defer func() {
		if err == nil {
			logger.Info("Finished updating IP set")
		} else {
			logger.Error(err, "Failed to update IP set")
		}
	}()

	if input.Region == "" {
		return UpdateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", input)
	}
	if input.Id == "" {
		return UpdateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Id must not be empty", input)
	}
	if input.Name == "" {
		return UpdateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.Name must not be empty", input)
	}
	if input.LockToken == "" {
		return UpdateIPSetOutput{}, microerror.Maskf(errors.InvalidConfigError, "%T.LockToken must not be empty", input)
	}

	optFn := c.assumeRoleClient.WAFV2(input.RoleARN, input.Region)

	//
	// Replace addresses
	//
	lockToken := input.LockToken
	attempt := 0
	err = retry.OnError(retry.DefaultRetry, errors.IsWAFOptimisticLock, func() error {
		if attempt > 0 {
			getInput := wafv2.GetIPSetInput{
				Id:    aws.String(input.Id),
				Name:  aws.String(input.Name),
				Scope: input.Scope,
			}
			getOutput, err := c.wafClient.GetIPSet(ctx, &getInput, optFn)
			if err != nil {
				return err
			}
			lockToken = aws.ToString(getOutput.LockToken)
			logger.Info("Retrying IP set update with refreshed lock token", "attempt", attempt)
		}
		attempt++

		wafInput := wafv2.UpdateIPSetInput{
			Id:          aws.String(input.Id),
			Name:        aws.String(input.Name),
			Scope:       input.Scope,
			Addresses:   input.Addresses,
			Description: aws.String(tags.Description),
			LockToken:   aws.String(lockToken),
		}
		if wafInput.Addresses == nil {
			wafInput.Addresses = []string{}
		}
		wafOutput, err := c.wafClient.UpdateIPSet(ctx, &wafInput, optFn)
		if err != nil {
			return err
		}
		output.LockToken = aws.ToString(wafOutput.NextLockToken)

		return nil
	})
	if err != nil {
		return UpdateIPSetOutput{}, microerror.Maskf(errors.ResourceUpdateError, "could not update IP set %q: %s", input.Id, err)
	}

	//
	// Refresh tags
	//
	if len(input.Tags) > 0 && input.ARN != "" {
		tagInput := wafv2.TagResourceInput{
			ResourceARN: aws.String(input.ARN),
			Tags:        tags.ToWAF(input.Tags),
		}
		_, err = c.wafClient.TagResource(ctx, &tagInput, optFn)
		if err != nil {
			return UpdateIPSetOutput{}, microerror.Maskf(errors.ResourceUpdateError, "could not tag IP set %q: %s", input.Id, err)
		}
	}

	return output, nil
}
