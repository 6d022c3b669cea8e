package policy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
)

const samplePolicy = `{
  "Services": [
    {
      "Name": "API_GATEWAY",
      "Regions": ["sa-east-1"],
      "PrefixList": {"Enable": true, "Summarize": false},
      "WafIPSet": {"Enable": true, "Summarize": true, "Scopes": ["REGIONAL"]}
    },
    {
      "Name": "CLOUDFRONT",
      "Regions": [],
      "WafIPSet": {"Enable": true, "Summarize": true, "Scopes": ["CLOUDFRONT", "REGIONAL"]}
    },
    {"Name": "", "Regions": []},
    {"Name": "S3", "WafIPSet": {"Enable": true, "Scopes": ["GLOBAL"]}},
    {"Name": "EC2", "WafIPSet": {"Enable": true, "Scopes": []}},
    {"Name": "ROUTE53", "PrefixList": {"Enabled": true}},
    {"Name": "API_GATEWAY", "PrefixList": {"Enable": true}},
    "not-an-object"
  ]
}`

var _ = Describe("Parse", func() {
	It("keeps valid services and reports invalid ones", func() {
		policy, invalid, err := Parse([]byte(samplePolicy))
		Expect(err).NotTo(HaveOccurred())

		Expect(policy.Services).To(HaveLen(2))
		Expect(policy.Services[0]).To(Equal(Service{
			Name:       "API_GATEWAY",
			Regions:    []string{"sa-east-1"},
			PrefixList: PrefixList{Enable: true},
			WafIPSet:   WafIPSet{Enable: true, Summarize: true, Scopes: []Scope{ScopeRegional}},
		}))
		Expect(policy.Services[1].Name).To(Equal("CLOUDFRONT"))
		Expect(policy.Services[1].WafIPSet.Scopes).To(Equal([]Scope{ScopeCloudFront, ScopeRegional}))

		Expect(invalid).To(HaveLen(6))
		for _, err := range invalid {
			Expect(errors.IsPolicyValidation(err)).To(BeTrue())
		}
	})

	It("reports services deriving the same resource name", func() {
		policy, invalid, err := Parse([]byte(`{"Services": [
			{"Name": "API_GATEWAY", "PrefixList": {"Enable": true}},
			{"Name": "API-GATEWAY", "PrefixList": {"Enable": true}},
			{"Name": "api_gateway", "PrefixList": {"Enable": true}}
		]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(policy.Services).To(HaveLen(1))
		Expect(policy.Services[0].Name).To(Equal("API_GATEWAY"))
		Expect(invalid).To(HaveLen(2))
		for _, err := range invalid {
			Expect(errors.IsPolicyValidation(err)).To(BeTrue())
		}
	})

	It("accepts YAML", func() {
		policy, invalid, err := Parse([]byte(`
Services:
  - Name: API_GATEWAY
    Regions: [sa-east-1]
    PrefixList:
      Enable: true
      Summarize: true
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(invalid).To(BeEmpty())
		Expect(policy.Services).To(HaveLen(1))
		Expect(policy.Services[0].PrefixList).To(Equal(PrefixList{Enable: true, Summarize: true}))
	})

	DescribeTable("fails on undecodable documents",
		func(raw string) {
			_, _, err := Parse([]byte(raw))
			Expect(errors.IsPolicyParse(err)).To(BeTrue())
		},
		Entry("no Services", `{"Other": []}`),
		Entry("Services is not a list", `{"Services": {}}`),
		Entry("broken yaml", "Services: [\n"),
	)
})

var _ = Describe("ResourceName", func() {
	DescribeTable("derives names",
		func(service string, version ipranges.IPVersion, expected string) {
			Expect(ResourceName(service, version)).To(Equal(expected))
		},
		Entry(nil, "API_GATEWAY", ipranges.IPv4, "aws-ip-ranges-api-gateway-ipv4"),
		Entry(nil, "CLOUDFRONT_ORIGIN_FACING", ipranges.IPv6, "aws-ip-ranges-cloudfront-origin-facing-ipv6"),
		Entry(nil, "S3", ipranges.IPv4, "aws-ip-ranges-s3-ipv4"),
	)
})

type fakeAppConfig struct {
	configuration []byte
	token         string
}

func (f *fakeAppConfig) StartConfigurationSession(_ context.Context, params *appconfigdata.StartConfigurationSessionInput, _ ...func(*appconfigdata.Options)) (*appconfigdata.StartConfigurationSessionOutput, error) {
	f.token = aws.ToString(params.ApplicationIdentifier) + "/" + aws.ToString(params.EnvironmentIdentifier) + "/" + aws.ToString(params.ConfigurationProfileIdentifier)
	return &appconfigdata.StartConfigurationSessionOutput{InitialConfigurationToken: aws.String(f.token)}, nil
}

func (f *fakeAppConfig) GetLatestConfiguration(_ context.Context, params *appconfigdata.GetLatestConfigurationInput, _ ...func(*appconfigdata.Options)) (*appconfigdata.GetLatestConfigurationOutput, error) {
	Expect(aws.ToString(params.ConfigurationToken)).To(Equal(f.token))
	return &appconfigdata.GetLatestConfigurationOutput{Configuration: f.configuration}, nil
}

var _ = Describe("Sources", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("loads a policy file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "policy.json")
		Expect(os.WriteFile(path, []byte(samplePolicy), 0o600)).To(Succeed())

		policy, invalid, err := Load(ctx, FileSource{Path: path})
		Expect(err).NotTo(HaveOccurred())
		Expect(policy.Services).To(HaveLen(2))
		Expect(invalid).To(HaveLen(6))
	})

	It("loads a policy from AppConfig", func() {
		api := &fakeAppConfig{configuration: []byte(samplePolicy)}
		source := AppConfigSource{
			API:           api,
			Application:   "aws-ip-ranges",
			Environment:   "prod",
			Configuration: "services",
		}

		policy, _, err := Load(ctx, source)
		Expect(err).NotTo(HaveOccurred())
		Expect(api.token).To(Equal("aws-ip-ranges/prod/services"))
		Expect(policy.Services).To(HaveLen(2))
	})

	It("requires the AppConfig identifiers", func() {
		_, err := AppConfigSource{API: &fakeAppConfig{}}.Load(ctx)
		Expect(errors.IsInvalidConfig(err)).To(BeTrue())
	})
})
