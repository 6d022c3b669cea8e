package ipsets

import (
	"context"

	wafTypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"
	"github.com/giantswarm/microerror"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/cidrs"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

type Spec struct {
	Name      string
	Scope     policy.Scope
	IPVersion ipranges.IPVersion
	// Addresses are the desired canonical CIDRs.
	Addresses []string
}

type Status struct {
	Id        string
	ARN       string
	LockToken string
	Added     []string
	Removed   []string
}

func (r *reconciler) Reconcile(ctx context.Context, request aws.ReconcileRequest[Spec]) (result aws.ReconcileResult[Status], err error) {
	logger := log.FromContext(ctx).WithValues("ip-set-name", request.Spec.Name, "scope", request.Spec.Scope)
	ctx = log.IntoContext(ctx, logger)
	logger.Info("Started reconciling IP set")
	defer func() {
		if err == nil {
			logger.Info("Finished reconciling IP set", "action", result.Action)
		} else {
			logger.Error(err, "Failed to reconcile IP set")
		}
	}()

	if request.Region == "" {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.InvalidConfigError, "Region must not be empty")
	}
	if request.Spec.Name == "" {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.InvalidConfigError, "Name must not be empty")
	}
	if !request.Spec.Scope.IsValid() {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.InvalidConfigError, "Scope %q is not valid", request.Spec.Scope)
	}
	if request.Spec.Scope == policy.ScopeCloudFront && request.Region != CloudFrontRegion {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ScopePreconditionError, "IP set %q has scope %s but the region is %q, not %q", request.Spec.Name, request.Spec.Scope, request.Region, CloudFrontRegion)
	}

	if len(request.Spec.Addresses) == 0 {
		logger.Info("No desired addresses, skipping IP set")
		return aws.ReconcileResult[Status]{Action: aws.ActionSkipped}, nil
	}

	scope := wafTypes.Scope(request.Spec.Scope)
	desired := sets.New[string](request.Spec.Addresses...)

	//
	// Get existing IP set
	//
	getInput := GetIPSetInput{
		RoleARN: request.RoleARN,
		Region:  request.Region,
		Name:    request.Spec.Name,
		Scope:   scope,
	}
	current, err := r.client.Get(ctx, getInput)
	if errors.IsIPSetNotFound(err) {
		return r.create(ctx, request, scope, sets.List(desired))
	} else if errors.IsUnmanagedResourceConflict(err) {
		return aws.ReconcileResult[Status]{}, microerror.Mask(err)
	} else if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceLookupError, "could not look up IP set %q: %s", request.Spec.Name, err)
	}

	getAddressesInput := GetAddressesInput{
		RoleARN: request.RoleARN,
		Region:  request.Region,
		Id:      current.Id,
		Name:    current.Name,
		Scope:   scope,
	}
	addresses, err := r.client.GetAddresses(ctx, getAddressesInput)
	if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceLookupError, "could not read addresses of IP set %q: %s", current.Id, err)
	}

	existing := sets.New[string]()
	for _, address := range addresses.Addresses {
		canonical, err := cidrs.Canonical(address)
		if err != nil {
			existing.Insert(address)
			continue
		}
		existing.Insert(canonical)
	}

	//
	// Compute difference
	//
	toAdd := sets.List(desired.Difference(existing))
	toRemove := sets.List(existing.Difference(desired))

	status := Status{
		Id:        current.Id,
		ARN:       current.ARN,
		LockToken: addresses.LockToken,
	}

	if len(toAdd) == 0 && len(toRemove) == 0 {
		logger.Info("IP set is up to date", "ip-set-id", current.Id, "addresses", existing.Len())
		return aws.ReconcileResult[Status]{Action: aws.ActionSkipped, Status: status}, nil
	}

	//
	// Replace addresses
	//
	updateInput := UpdateIPSetInput{
		RoleARN:   request.RoleARN,
		Region:    request.Region,
		Id:        current.Id,
		ARN:       current.ARN,
		Name:      current.Name,
		Scope:     scope,
		LockToken: addresses.LockToken,
		Addresses: sets.List(desired),
		Tags: tags.Diff(tags.BuildParams{
			Name:      request.Spec.Name,
			UpdatedAt: r.now(),
		}.Build(), current.Tags),
	}

	logger.Info("Updating IP set", "ip-set-id", current.Id, "add", len(toAdd), "remove", len(toRemove))
	updateOutput, err := r.client.Update(ctx, updateInput)
	if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceUpdateError, "could not update IP set %q: %s", current.Id, err)
	}

	status.LockToken = updateOutput.LockToken
	status.Added = toAdd
	status.Removed = toRemove

	return aws.ReconcileResult[Status]{Action: aws.ActionUpdated, Status: status}, nil
}

func (r *reconciler) create(ctx context.Context, request aws.ReconcileRequest[Spec], scope wafTypes.Scope, addresses []string) (aws.ReconcileResult[Status], error) {
	now := r.now()
	createInput := CreateIPSetInput{
		RoleARN:        request.RoleARN,
		Region:         request.Region,
		Name:           request.Spec.Name,
		Scope:          scope,
		AddressVersion: AddressVersion(request.Spec.IPVersion),
		Addresses:      addresses,
		Tags: tags.BuildParams{
			Name:      request.Spec.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}.Build(),
	}
	createOutput, err := r.client.Create(ctx, createInput)
	if errors.IsUnmanagedResourceConflict(err) {
		return aws.ReconcileResult[Status]{}, microerror.Mask(err)
	} else if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceCreateError, "could not create IP set %q: %s", request.Spec.Name, err)
	}

	return aws.ReconcileResult[Status]{
		Action: aws.ActionCreated,
		Status: Status{
			Id:        createOutput.Id,
			ARN:       createOutput.ARN,
			LockToken: createOutput.LockToken,
			Added:     addresses,
		},
	}, nil
}
