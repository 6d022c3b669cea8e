package config

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

var _ = Describe("Config", func() {
	It("applies defaults", func() {
		cfg, err := LoadFrom(map[string]string{
			"AWS_REGION":  "eu-west-1",
			"POLICY_FILE": "/etc/updater/policy.yaml",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).To(Succeed())

		Expect(cfg.Ranges.URL).To(Equal(ipranges.DefaultURL))
		Expect(cfg.Ranges.HTTPTimeout).To(Equal(30 * time.Second))
		Expect(cfg.Run.Concurrency).To(Equal(4))
		Expect(cfg.Run.RequireAllSucceeded).To(BeFalse())
		Expect(cfg.Run.LogLevel).To(Equal("info"))
		Expect(cfg.Policy.Source(nil)).To(Equal(policy.FileSource{Path: "/etc/updater/policy.yaml"}))
	})

	It("reads every variable", func() {
		cfg, err := LoadFrom(map[string]string{
			"AWS_REGION":              "us-east-1",
			"ROLE_ARN":                "arn:aws:iam::123456789012:role/updater",
			"AWS_ORG_ARN":             "arn:aws:organizations::123456789012:organization/o-example",
			"RANGES_URL":              "https://example.com/ip-ranges.json",
			"RANGES_EXPECTED_MD5":     "6e9a3ab5fb2a7f4f1b0b6c6f0f9d3a3e",
			"HTTP_TIMEOUT":            "5s",
			"APP_CONFIG_APP_NAME":     "updater",
			"APP_CONFIG_APP_ENV_NAME": "prod",
			"APP_CONFIG_NAME":         "services",
			"CONCURRENCY":             "8",
			"REQUIRE_ALL_SUCCEEDED":   "true",
			"LOG_LEVEL":               "debug",
			"PUSHGATEWAY_URL":         "http://pushgateway:9091",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Validate()).To(Succeed())

		Expect(cfg.AWS).To(Equal(AWSConfig{
			Region:  "us-east-1",
			RoleARN: "arn:aws:iam::123456789012:role/updater",
			OrgARN:  "arn:aws:organizations::123456789012:organization/o-example",
		}))
		Expect(cfg.Ranges.HTTPTimeout).To(Equal(5 * time.Second))
		Expect(cfg.Run.Concurrency).To(Equal(8))
		Expect(cfg.Run.RequireAllSucceeded).To(BeTrue())
		Expect(cfg.Metrics.PushgatewayURL).To(Equal("http://pushgateway:9091"))

		source, ok := cfg.Policy.Source(nil).(policy.AppConfigSource)
		Expect(ok).To(BeTrue())
		Expect(source.Application).To(Equal("updater"))
		Expect(source.Environment).To(Equal("prod"))
		Expect(source.Configuration).To(Equal("services"))
	})

	It("rejects malformed values", func() {
		_, err := LoadFrom(map[string]string{"CONCURRENCY": "many"})
		Expect(errors.IsInvalidConfig(err)).To(BeTrue())
	})

	DescribeTable("Validate",
		func(environment map[string]string) {
			cfg, err := LoadFrom(environment)
			Expect(err).NotTo(HaveOccurred())
			Expect(errors.IsInvalidConfig(cfg.Validate())).To(BeTrue())
		},
		Entry("missing region", map[string]string{"POLICY_FILE": "p.json"}),
		Entry("missing policy source", map[string]string{"AWS_REGION": "eu-west-1"}),
		Entry("partial AppConfig", map[string]string{"AWS_REGION": "eu-west-1", "APP_CONFIG_APP_NAME": "updater"}),
		Entry("two policy sources", map[string]string{
			"AWS_REGION":              "eu-west-1",
			"POLICY_FILE":             "p.json",
			"APP_CONFIG_APP_NAME":     "updater",
			"APP_CONFIG_APP_ENV_NAME": "prod",
			"APP_CONFIG_NAME":         "services",
		}),
		Entry("no concurrency", map[string]string{"AWS_REGION": "eu-west-1", "POLICY_FILE": "p.json", "CONCURRENCY": "0"}),
	)
})
