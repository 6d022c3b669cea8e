package ipsets

import (
	wafTypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
)

// CloudFrontRegion is the only region CLOUDFRONT scoped IP sets can be
// managed from.
const CloudFrontRegion = "us-east-1"

// IPSet is the part of a WAFv2 IP set the updater cares about.
type IPSet struct {
	Id        string
	ARN       string
	Name      string
	Scope     wafTypes.Scope
	LockToken string
	Tags      map[string]string
}

// AddressVersion maps an IP version to the WAFv2 address version.
func AddressVersion(version ipranges.IPVersion) wafTypes.IPAddressVersion {
	if version == ipranges.IPv6 {
		return wafTypes.IPAddressVersionIpv6
	}

	return wafTypes.IPAddressVersionIpv4
}
