// Package aggregate computes the desired CIDR set of a managed resource from
// a service policy and the parsed IP ranges document.
package aggregate

import (
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/cidrs"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

// Kind selects which summarize flag of the service policy applies.
type Kind string

const (
	KindPrefixList Kind = "PREFIX_LIST"
	KindIPSet      Kind = "IP_SET"
)

// DesiredSet is the membership a managed resource must end up with. It is
// recomputed on every run and never stored.
type DesiredSet struct {
	ServiceName string
	IPVersion   ipranges.IPVersion

	// CIDRs are unique, canonical and sorted.
	CIDRs []string
}

func (d DesiredSet) IsEmpty() bool {
	return len(d.CIDRs) == 0
}

// ComputeDesired collects the prefixes of service for version from index,
// optionally summarized.
func ComputeDesired(service policy.Service, index *ipranges.Index, version ipranges.IPVersion, summarize bool) DesiredSet {
	desired := DesiredSet{
		ServiceName: service.Name,
		IPVersion:   version,
		CIDRs:       []string{},
	}
	if index == nil {
		return desired
	}

	prefixes := index.Prefixes(service.Name, service.Regions, version)
	if summarize {
		prefixes = cidrs.Summarize(prefixes)
	}
	desired.CIDRs = cidrs.Strings(prefixes)

	return desired
}

// ComputeDesiredFor is ComputeDesired with the summarize flag taken from the
// policy of the given resource kind.
func ComputeDesiredFor(service policy.Service, index *ipranges.Index, version ipranges.IPVersion, kind Kind) DesiredSet {
	summarize := service.PrefixList.Summarize
	if kind == KindIPSet {
		summarize = service.WafIPSet.Summarize
	}

	return ComputeDesired(service, index, version, summarize)
}
