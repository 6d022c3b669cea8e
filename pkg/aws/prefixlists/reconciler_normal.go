package prefixlists

import (
	"context"

	"github.com/giantswarm/microerror"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/cidrs"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
)

// CapacityHeadroom is added to the desired entry count when a prefix list is
// created, so it can grow for a while without being resized.
const CapacityHeadroom = 10

type Spec struct {
	Name      string
	IPVersion ipranges.IPVersion
	// Entries are the desired canonical CIDRs.
	Entries []string
	// ShareWith is the principal a newly created prefix list is shared with
	// through RAM. Empty disables sharing.
	ShareWith string
}

type Status struct {
	PrefixListId string
	Version      int64
	MaxEntries   int32
	Added        []string
	Removed      []string
}

func (r *reconciler) Reconcile(ctx context.Context, request aws.ReconcileRequest[Spec]) (result aws.ReconcileResult[Status], err error) {
	logger := log.FromContext(ctx).WithValues("prefix-list-name", request.Spec.Name)
	ctx = log.IntoContext(ctx, logger)
	logger.Info("Started reconciling prefix list")
	defer func() {
		if err == nil {
			logger.Info("Finished reconciling prefix list", "action", result.Action)
		} else {
			logger.Error(err, "Failed to reconcile prefix list")
		}
	}()

	if request.Region == "" {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.InvalidConfigError, "Region must not be empty")
	}
	if request.Spec.Name == "" {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.InvalidConfigError, "Name must not be empty")
	}

	if len(request.Spec.Entries) == 0 {
		logger.Info("No desired entries, skipping prefix list")
		return aws.ReconcileResult[Status]{Action: aws.ActionSkipped}, nil
	}

	desired := sets.New[string](request.Spec.Entries...)

	//
	// Get existing prefix list
	//
	getInput := GetPrefixListInput{
		RoleARN: request.RoleARN,
		Region:  request.Region,
		Name:    request.Spec.Name,
	}
	current, err := r.client.Get(ctx, getInput)
	if errors.IsPrefixListNotFound(err) {
		return r.create(ctx, request, sets.List(desired))
	} else if errors.IsPrefixListConflict(err) {
		return aws.ReconcileResult[Status]{}, microerror.Mask(err)
	} else if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceLookupError, "could not look up prefix list %q: %s", request.Spec.Name, err)
	}

	getEntriesInput := GetEntriesInput{
		RoleARN:      request.RoleARN,
		Region:       request.Region,
		PrefixListId: current.PrefixListId,
		Version:      current.Version,
	}
	currentEntries, err := r.client.GetEntries(ctx, getEntriesInput)
	if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceLookupError, "could not read entries of prefix list %q: %s", current.PrefixListId, err)
	}

	existing := sets.New[string]()
	for _, entry := range currentEntries {
		canonical, err := cidrs.Canonical(entry)
		if err != nil {
			// Unparsable entries are not ours to keep.
			existing.Insert(entry)
			continue
		}
		existing.Insert(canonical)
	}

	//
	// Compute difference
	//
	toAdd := sets.List(desired.Difference(existing))
	toRemove := sets.List(existing.Difference(desired))
	needsCapacity := int(current.MaxEntries) < desired.Len()

	status := Status{
		PrefixListId: current.PrefixListId,
		Version:      current.Version,
		MaxEntries:   current.MaxEntries,
	}

	//
	// Share with the organization
	//
	// A share that failed on creation is retried here on every later run.
	err = r.share(ctx, request, current.PrefixListArn, current.Tags)
	if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Mask(err)
	}

	if len(toAdd) == 0 && len(toRemove) == 0 && !needsCapacity {
		logger.Info("Prefix list is up to date", "prefix-list-id", current.PrefixListId, "entries", existing.Len())
		return aws.ReconcileResult[Status]{Action: aws.ActionSkipped, Status: status}, nil
	}

	//
	// Update prefix list
	//
	updateInput := UpdatePrefixListInput{
		RoleARN:        request.RoleARN,
		Region:         request.Region,
		PrefixListId:   current.PrefixListId,
		CurrentVersion: current.Version,
		AddEntries:     toAdd,
		RemoveEntries:  toRemove,
		Tags: tags.Diff(tags.BuildParams{
			Name:      request.Spec.Name,
			UpdatedAt: r.now(),
		}.Build(), current.Tags),
	}
	if needsCapacity {
		updateInput.MaxEntries = int32(desired.Len())
	}

	logger.Info("Updating prefix list", "prefix-list-id", current.PrefixListId, "add", len(toAdd), "remove", len(toRemove), "max-entries", updateInput.MaxEntries)
	updateOutput, err := r.client.Update(ctx, updateInput)
	if errors.IsCapacityInsufficient(err) {
		return aws.ReconcileResult[Status]{}, microerror.Mask(err)
	} else if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceUpdateError, "could not update prefix list %q: %s", current.PrefixListId, err)
	}

	status.Version = updateOutput.Version
	if updateOutput.MaxEntries > 0 {
		status.MaxEntries = updateOutput.MaxEntries
	}
	status.Added = toAdd
	status.Removed = toRemove

	return aws.ReconcileResult[Status]{Action: aws.ActionUpdated, Status: status}, nil
}

func (r *reconciler) create(ctx context.Context, request aws.ReconcileRequest[Spec], entries []string) (aws.ReconcileResult[Status], error) {
	now := r.now()
	resourceTags := tags.BuildParams{
		Name:      request.Spec.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}.Build()

	createInput := CreatePrefixListInput{
		RoleARN:       request.RoleARN,
		Region:        request.Region,
		Name:          request.Spec.Name,
		AddressFamily: AddressFamily(request.Spec.IPVersion),
		MaxEntries:    int32(len(entries) + CapacityHeadroom),
		Entries:       entries,
		Tags:          resourceTags,
	}
	createOutput, err := r.client.Create(ctx, createInput)
	if err != nil {
		return aws.ReconcileResult[Status]{}, microerror.Maskf(errors.ResourceCreateError, "could not create prefix list %q: %s", request.Spec.Name, err)
	}

	result := aws.ReconcileResult[Status]{
		Action: aws.ActionCreated,
		Status: Status{
			PrefixListId: createOutput.PrefixListId,
			Version:      createOutput.Version,
			MaxEntries:   createOutput.MaxEntries,
			Added:        entries,
		},
	}

	//
	// Share with the organization
	//
	err = r.share(ctx, request, createOutput.PrefixListArn, resourceTags)
	if err != nil {
		return result, microerror.Mask(err)
	}

	return result, nil
}

func (r *reconciler) share(ctx context.Context, request aws.ReconcileRequest[Spec], prefixListArn string, resourceTags map[string]string) error {
	if request.Spec.ShareWith == "" {
		return nil
	}

	shareInput := SharePrefixListInput{
		RoleARN:       request.RoleARN,
		Region:        request.Region,
		Name:          request.Spec.Name,
		PrefixListArn: prefixListArn,
		Principal:     request.Spec.ShareWith,
		Tags:          resourceTags,
	}
	err := r.client.Share(ctx, shareInput)
	if err != nil {
		return microerror.Mask(err)
	}

	return nil
}
