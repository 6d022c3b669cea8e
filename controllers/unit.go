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
	"sort"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aggregate"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

// Unit is one managed resource: a service, an IP version, a resource kind
// and, for IP sets, a scope.
type Unit struct {
	Service   policy.Service
	IPVersion ipranges.IPVersion
	Kind      aggregate.Kind
	// Scope is only set for IP sets.
	Scope policy.Scope
}

func (u Unit) ResourceName() string {
	return u.Service.ResourceName(u.IPVersion)
}

// ID identifies the unit within a run, e.g. "IP_SET/REGIONAL/aws-ip-ranges-s3-ipv4".
func (u Unit) ID() string {
	if u.Scope == "" {
		return string(u.Kind) + "/" + u.ResourceName()
	}

	return string(u.Kind) + "/" + string(u.Scope) + "/" + u.ResourceName()
}

// Plan expands the policy into units. A service with prefix lists enabled
// gets one prefix list per IP version, a service with WAF IP sets enabled
// gets one IP set per IP version and scope.
func Plan(p policy.Policy) []Unit {
	var units []Unit
	for _, service := range p.Services {
		if service.PrefixList.Enable {
			for _, version := range ipranges.IPVersions {
				units = append(units, Unit{
					Service:   service,
					IPVersion: version,
					Kind:      aggregate.KindPrefixList,
				})
			}
		}

		if service.WafIPSet.Enable {
			for _, scope := range service.WafIPSet.Scopes {
				for _, version := range ipranges.IPVersions {
					units = append(units, Unit{
						Service:   service,
						IPVersion: version,
						Kind:      aggregate.KindIPSet,
						Scope:     scope,
					})
				}
			}
		}
	}

	return units
}

// Outcome is what happened to a unit in a run.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type Result struct {
	Unit         Unit
	Outcome      Outcome
	DesiredCIDRs int
	Err          error
}

func (r Result) Succeeded() bool {
	return r.Outcome != OutcomeFailed
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Unit.ID() < results[j].Unit.ID()
	})
}
