package tags

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildParams", func() {
	It("always sets the ManagedBy tag", func() {
		createdAt := time.Date(2024, 2, 1, 10, 30, 0, 0, time.FixedZone("CET", 3600))

		tags := BuildParams{
			Name:       "aws-ip-ranges-s3-ipv4",
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
			Additional: map[string]string{"team": "network", ManagedByKey: "someone-else"},
		}.Build()

		Expect(tags).To(Equal(map[string]string{
			NameKey:      "aws-ip-ranges-s3-ipv4",
			ManagedByKey: ManagedByValue,
			CreatedAtKey: "2024-02-01T09:30:00Z",
			UpdatedAtKey: "2024-02-01T09:30:00Z",
			"team":       "network",
		}))
		Expect(IsManaged(tags)).To(BeTrue())
	})

	It("leaves out zero timestamps", func() {
		tags := BuildParams{Name: "x"}.Build()
		Expect(tags).NotTo(HaveKey(CreatedAtKey))
		Expect(tags).NotTo(HaveKey(UpdatedAtKey))
	})
})

var _ = Describe("conversions", func() {
	It("produces EC2 tags sorted by key and back", func() {
		spec := BuildParamsToTagSpecification(ec2Types.ResourceTypePrefixList, map[string]string{"b": "2", "a": "1"})

		Expect(spec.ResourceType).To(Equal(ec2Types.ResourceTypePrefixList))
		Expect(spec.Tags).To(Equal([]ec2Types.Tag{
			{Key: aws.String("a"), Value: aws.String("1")},
			{Key: aws.String("b"), Value: aws.String("2")},
		}))
		Expect(ToMap(spec.Tags)).To(Equal(map[string]string{"a": "1", "b": "2"}))
	})

	It("round-trips WAF and RAM tags", func() {
		in := map[string]string{ManagedByKey: ManagedByValue, NameKey: "n"}
		Expect(FromWAF(ToWAF(in))).To(Equal(in))
		Expect(FromRAM(ToRAM(in))).To(Equal(in))
	})

	It("does not treat untagged resources as managed", func() {
		Expect(IsManaged(nil)).To(BeFalse())
		Expect(IsManaged(map[string]string{ManagedByKey: "terraform"})).To(BeFalse())
	})
})

var _ = Describe("Diff", func() {
	It("returns new and changed tags only", func() {
		diff := Diff(
			map[string]string{"a": "1", "b": "2", "c": "3"},
			map[string]string{"a": "1", "b": "old"},
		)
		Expect(diff).To(Equal(map[string]string{"b": "2", "c": "3"}))
	})
})
