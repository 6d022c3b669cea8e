/*
Copyright 2022.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controllers

import (
	"context"
	"sync"
	"time"

	"github.com/giantswarm/microerror"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aggregate"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/assumerole"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/ipsets"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/prefixlists"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

const defaultConcurrency = 4

// MetricsRecorder receives the outcome of every unit.
type MetricsRecorder interface {
	RecordUnit(kind, outcome string)
	RecordDesired(resource string, count int)
}

type Config struct {
	EC2Client        prefixlists.EC2API
	RAMClient        prefixlists.RAMAPI
	WAFClient        ipsets.WAFV2API
	AssumeRoleClient assumerole.Client

	// Metrics is optional.
	Metrics MetricsRecorder
	// Concurrency bounds the number of units reconciled at once.
	Concurrency int
	// RequireAllSucceeded makes Reconcile fail when any unit failed.
	RequireAllSucceeded bool
	// ShareWith is the principal new prefix lists are shared with, usually
	// the organization ARN. Empty disables sharing.
	ShareWith string
}

// IPRangesReconciler reconciles every resource the policy asks for against
// the IP ranges document.
type IPRangesReconciler struct {
	prefixListReconciler prefixlists.Reconciler
	ipSetReconciler      ipsets.Reconciler

	metrics             MetricsRecorder
	concurrency         int
	requireAllSucceeded bool
	shareWith           string
}

// NewIPRangesReconciler creates a new IPRangesReconciler for the specified AWS clients.
func NewIPRangesReconciler(config Config) (*IPRangesReconciler, error) {
	if config.EC2Client == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.EC2Client must not be empty", config)
	}
	if config.RAMClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.RAMClient must not be empty", config)
	}
	if config.WAFClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.WAFClient must not be empty", config)
	}
	if config.AssumeRoleClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.AssumeRoleClient must not be empty", config)
	}
	if config.Concurrency < 0 {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.Concurrency must not be negative", config)
	}
	if config.Concurrency == 0 {
		config.Concurrency = defaultConcurrency
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}

	var prefixListReconciler prefixlists.Reconciler
	{
		prefixListClient, err := prefixlists.NewClient(prefixlists.Config{
			EC2Client:        config.EC2Client,
			RAMClient:        config.RAMClient,
			AssumeRoleClient: config.AssumeRoleClient,
		})
		if err != nil {
			return nil, microerror.Mask(err)
		}

		prefixListReconciler, err = prefixlists.NewReconciler(prefixListClient)
		if err != nil {
			return nil, microerror.Mask(err)
		}
	}

	var ipSetReconciler ipsets.Reconciler
	{
		ipSetClient, err := ipsets.NewClient(config.WAFClient, config.AssumeRoleClient)
		if err != nil {
			return nil, microerror.Mask(err)
		}

		ipSetReconciler, err = ipsets.NewReconciler(ipSetClient)
		if err != nil {
			return nil, microerror.Mask(err)
		}
	}

	return &IPRangesReconciler{
		prefixListReconciler: prefixListReconciler,
		ipSetReconciler:      ipSetReconciler,

		metrics:             config.Metrics,
		concurrency:         config.Concurrency,
		requireAllSucceeded: config.RequireAllSucceeded,
		shareWith:           config.ShareWith,
	}, nil
}

// Request carries the read-only inputs of a run.
type Request struct {
	Index   *ipranges.Index
	Policy  policy.Policy
	Region  string
	RoleARN string
}

// Reconcile runs every unit of the policy once. Units are independent: a
// failed unit is recorded in the summary and the others carry on. An error
// is only returned for invalid requests, or when all units were required to
// succeed and some did not.
func (r *IPRangesReconciler) Reconcile(ctx context.Context, req Request) (summary Summary, err error) {
	logger := log.FromContext(ctx).WithValues("region", req.Region)
	ctx = log.IntoContext(ctx, logger)
	logger.Info("Started reconciling IP ranges")
	defer func() {
		if err == nil {
			logger.Info("Finished reconciling IP ranges")
		} else {
			logger.Error(err, "Failed to reconcile IP ranges")
		}
	}()

	if req.Index == nil {
		return Summary{}, microerror.Maskf(errors.InvalidConfigError, "%T.Index must not be empty", req)
	}
	if req.Region == "" {
		return Summary{}, microerror.Maskf(errors.InvalidConfigError, "%T.Region must not be empty", req)
	}

	units := Plan(req.Policy)
	logger.Info("Planned units", "sync-token", req.Index.SyncToken, "services", len(req.Policy.Services), "units", len(units))

	//
	// Fan out over units
	//
	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(units))
	)

	g := &errgroup.Group{}
	g.SetLimit(r.concurrency)
	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			result := r.reconcileUnit(ctx, req, unit)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()

			return nil
		})
	}
	_ = g.Wait()

	sortResults(results)
	summary = Summary{
		SyncToken:  req.Index.SyncToken,
		CreateDate: req.Index.CreateDate,
		Results:    results,
	}

	for _, result := range summary.Results {
		r.metrics.RecordUnit(string(result.Unit.Kind), string(result.Outcome))
	}

	logger.Info("Reconciled units",
		"created", len(summary.Created()),
		"updated", len(summary.Updated()),
		"skipped", len(summary.Skipped()),
		"failed", len(summary.Failed()),
	)

	if r.requireAllSucceeded {
		if failed := summary.Err(); failed != nil {
			return summary, microerror.Maskf(errors.UnitsFailedError, "%d of %d units failed: %s", len(summary.Failed()), len(summary.Results), failed)
		}
	}

	return summary, nil
}

func (r *IPRangesReconciler) reconcileUnit(ctx context.Context, req Request, unit Unit) (result Result) {
	logger := unitLogger(ctx, unit)
	ctx = log.IntoContext(ctx, logger)

	start := time.Now()
	result = Result{Unit: unit}
	defer func() {
		if p := recover(); p != nil {
			result.Outcome = OutcomeFailed
			result.Err = microerror.Maskf(errors.UnitPanicError, "%v", p)
		}

		if result.Succeeded() {
			logger.Info("Reconciled unit", "outcome", result.Outcome, "desired", result.DesiredCIDRs, "duration", time.Since(start))
		} else {
			logger.Error(result.Err, "Failed to reconcile unit")
		}
	}()

	desired := aggregate.ComputeDesiredFor(unit.Service, req.Index, unit.IPVersion, unit.Kind)
	result.DesiredCIDRs = len(desired.CIDRs)
	r.metrics.RecordDesired(unit.ID(), result.DesiredCIDRs)

	var (
		action aws.Action
		err    error
	)
	switch unit.Kind {
	case aggregate.KindPrefixList:
		action, err = r.reconcilePrefixList(ctx, req, unit, desired)
	case aggregate.KindIPSet:
		action, err = r.reconcileIPSet(ctx, req, unit, desired)
	default:
		err = microerror.Maskf(errors.InvalidConfigError, "unknown resource kind %q", unit.Kind)
	}

	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = Outcome(action)
	return result
}

func (r *IPRangesReconciler) reconcilePrefixList(ctx context.Context, req Request, unit Unit, desired aggregate.DesiredSet) (aws.Action, error) {
	request := aws.ReconcileRequest[prefixlists.Spec]{
		CloudResourceRequest: aws.CloudResourceRequest[prefixlists.Spec]{
			RoleARN: req.RoleARN,
			Region:  req.Region,
			Spec: prefixlists.Spec{
				Name:      unit.ResourceName(),
				IPVersion: unit.IPVersion,
				Entries:   desired.CIDRs,
				ShareWith: r.shareWith,
			},
		},
	}

	result, err := r.prefixListReconciler.Reconcile(ctx, request)
	if err != nil {
		return "", microerror.Mask(err)
	}

	return result.Action, nil
}

func (r *IPRangesReconciler) reconcileIPSet(ctx context.Context, req Request, unit Unit, desired aggregate.DesiredSet) (aws.Action, error) {
	request := aws.ReconcileRequest[ipsets.Spec]{
		CloudResourceRequest: aws.CloudResourceRequest[ipsets.Spec]{
			RoleARN: req.RoleARN,
			Region:  req.Region,
			Spec: ipsets.Spec{
				Name:      unit.ResourceName(),
				Scope:     unit.Scope,
				IPVersion: unit.IPVersion,
				Addresses: desired.CIDRs,
			},
		},
	}

	result, err := r.ipSetReconciler.Reconcile(ctx, request)
	if err != nil {
		return "", microerror.Mask(err)
	}

	return result.Action, nil
}

func unitLogger(ctx context.Context, unit Unit) logr.Logger {
	logger := log.FromContext(ctx).WithValues(
		"service", unit.Service.Name,
		"ip-version", unit.IPVersion,
		"kind", unit.Kind,
		"resource", unit.ResourceName(),
	)
	if unit.Scope != "" {
		logger = logger.WithValues("scope", unit.Scope)
	}

	return logger
}

type noopMetrics struct{}

func (noopMetrics) RecordUnit(string, string)  {}
func (noopMetrics) RecordDesired(string, int) {}
