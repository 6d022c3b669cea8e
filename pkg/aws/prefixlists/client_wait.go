package prefixlists

import (
	"context"

	"github.com/giantswarm/microerror"
	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// waitForStable polls the prefix list until it settles in a *-complete state
// and returns it. A *-failed state ends the wait with PrefixListStateError.
func (c *client) waitForStable(ctx context.Context, roleArn, region, prefixListId string) (PrefixList, error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-id", prefixListId)

	var prefixList PrefixList
	err := wait.PollUntilContextTimeout(ctx, c.pollInterval, c.pollTimeout, true, func(ctx context.Context) (bool, error) {
		pl, err := c.describe(ctx, roleArn, region, prefixListId)
		if errors.IsPrefixListNotFound(err) || errors.IsEC2PrefixListNotFound(err) {
			// A freshly created prefix list may not be visible yet.
			return false, nil
		} else if err != nil {
			return false, microerror.Mask(err)
		}

		prefixList = pl
		switch {
		case pl.State.IsStable():
			return true, nil
		case pl.State.IsFailed():
			return false, microerror.Maskf(errors.PrefixListStateError, "prefix list %q is in state %q: %s", prefixListId, pl.State, pl.StateMessage)
		}

		logger.Info("Waiting for prefix list to settle", "state", pl.State)
		return false, nil
	})
	if errors.IsPrefixListState(err) {
		return PrefixList{}, microerror.Mask(err)
	} else if err != nil {
		return PrefixList{}, microerror.Maskf(errors.PrefixListStateError, "prefix list %q did not settle, last state %q: %s", prefixListId, prefixList.State, err)
	}

	return prefixList, nil
}
