package aggregate

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

func v4(service, region, cidr string) ipranges.Range {
	return ipranges.Range{Service: service, Region: region, IPVersion: ipranges.IPv4, Prefix: netip.MustParsePrefix(cidr)}
}

func v6(service, region, cidr string) ipranges.Range {
	return ipranges.Range{Service: service, Region: region, IPVersion: ipranges.IPv6, Prefix: netip.MustParsePrefix(cidr)}
}

var _ = Describe("ComputeDesired", func() {
	var index *ipranges.Index

	BeforeEach(func() {
		index = ipranges.NewIndex("1", "now",
			v4("EC2", "eu-west-1", "10.0.0.0/25"),
			v4("EC2", "eu-west-1", "10.0.0.128/25"),
			v4("EC2", "eu-central-1", "10.0.1.0/24"),
			v4("EC2", "GLOBAL", "10.0.4.0/24"),
			v4("EC2", "us-east-1", "10.0.0.0/25"),
			v6("EC2", "eu-west-1", "2600:1f18::/36"),
			v6("EC2", "eu-central-1", "2600:1f18:1000::/36"),
			v4("S3", "eu-west-1", "52.0.0.0/16"),
		)
	})

	It("returns the deduplicated union for listed regions without merging", func() {
		service := policy.Service{Name: "EC2", Regions: []string{"eu-west-1", "us-east-1"}}

		desired := ComputeDesired(service, index, ipranges.IPv4, false)

		Expect(desired.ServiceName).To(Equal("EC2"))
		Expect(desired.IPVersion).To(Equal(ipranges.IPv4))
		Expect(desired.CIDRs).To(Equal([]string{"10.0.0.0/25", "10.0.0.128/25"}))
	})

	It("includes every region, GLOBAL among them, when regions are empty", func() {
		desired := ComputeDesired(policy.Service{Name: "EC2"}, index, ipranges.IPv4, false)

		Expect(desired.CIDRs).To(Equal([]string{"10.0.0.0/25", "10.0.0.128/25", "10.0.1.0/24", "10.0.4.0/24"}))
	})

	It("summarizes when asked to", func() {
		desired := ComputeDesired(policy.Service{Name: "EC2"}, index, ipranges.IPv4, true)
		Expect(desired.CIDRs).To(Equal([]string{"10.0.0.0/23", "10.0.4.0/24"}))

		desired = ComputeDesired(policy.Service{Name: "EC2"}, index, ipranges.IPv6, true)
		Expect(desired.CIDRs).To(Equal([]string{"2600:1f18::/35"}))
	})

	It("is empty for unknown services and regions", func() {
		Expect(ComputeDesired(policy.Service{Name: "LAMBDA"}, index, ipranges.IPv4, false).IsEmpty()).To(BeTrue())
		Expect(ComputeDesired(policy.Service{Name: "S3", Regions: []string{"ap-south-1"}}, index, ipranges.IPv4, false).IsEmpty()).To(BeTrue())
		Expect(ComputeDesired(policy.Service{Name: "S3"}, index, ipranges.IPv6, false).IsEmpty()).To(BeTrue())
	})

	It("selects the summarize flag by resource kind", func() {
		service := policy.Service{
			Name:       "EC2",
			Regions:    []string{"eu-west-1"},
			PrefixList: policy.PrefixList{Enable: true, Summarize: false},
			WafIPSet:   policy.WafIPSet{Enable: true, Summarize: true, Scopes: []policy.Scope{policy.ScopeRegional}},
		}

		Expect(ComputeDesiredFor(service, index, ipranges.IPv4, KindPrefixList).CIDRs).To(Equal([]string{"10.0.0.0/25", "10.0.0.128/25"}))
		Expect(ComputeDesiredFor(service, index, ipranges.IPv4, KindIPSet).CIDRs).To(Equal([]string{"10.0.0.0/24"}))
	})
})
