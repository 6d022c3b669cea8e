package ipsets

import (
	"context"
	"time"

	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type Reconciler interface {
	Reconcile(ctx context.Context, request aws.ReconcileRequest[Spec]) (aws.ReconcileResult[Status], error)
}

func NewReconciler(client Client) (Reconciler, error) {
	if client == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "client must not be empty")
	}

	return &reconciler{
		client: client,
		now:    time.Now,
	}, nil
}

type reconciler struct {
	client Client
	now    func() time.Time
}
