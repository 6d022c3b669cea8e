// Package policy holds the per-service configuration that decides which
// managed resources are kept in sync with the IP ranges document.
package policy

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
)

// ResourceNamePrefix prefixes the name of every managed resource.
const ResourceNamePrefix = "aws-ip-ranges"

type Scope string

const (
	ScopeCloudFront Scope = "CLOUDFRONT"
	ScopeRegional   Scope = "REGIONAL"
)

func (s Scope) IsValid() bool {
	return s == ScopeCloudFront || s == ScopeRegional
}

type Policy struct {
	Services []Service `json:"Services"`
}

type Service struct {
	// Name is the service label of the IP ranges document, e.g. API_GATEWAY.
	Name string `json:"Name"`

	// Regions limits the prefixes to these regions. Empty means all regions.
	Regions []string `json:"Regions"`

	PrefixList PrefixList `json:"PrefixList"`
	WafIPSet   WafIPSet   `json:"WafIPSet"`
}

type PrefixList struct {
	Enable    bool `json:"Enable"`
	Summarize bool `json:"Summarize"`
}

type WafIPSet struct {
	Enable    bool    `json:"Enable"`
	Summarize bool    `json:"Summarize"`
	Scopes    []Scope `json:"Scopes"`
}

var lower = cases.Lower(language.Und)

// ResourceName derives the name shared by the prefix list and the IP sets of
// the service for the given IP version, e.g. aws-ip-ranges-api-gateway-ipv4.
func (s Service) ResourceName(version ipranges.IPVersion) string {
	return ResourceName(s.Name, version)
}

func ResourceName(service string, version ipranges.IPVersion) string {
	name := strings.ReplaceAll(lower.String(service), "_", "-")
	return fmt.Sprintf("%s-%s-%s", ResourceNamePrefix, name, version)
}
