package tags

import (
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// BuildParamsToTagSpecification builds a TagSpecification for the specified resource type.
func BuildParamsToTagSpecification(ec2ResourceType ec2Types.ResourceType, tags map[string]string) ec2Types.TagSpecification {
	tagSpec := ec2Types.TagSpecification{
		ResourceType: ec2ResourceType,
		Tags:         ToEC2(tags),
	}

	return tagSpec
}

// ToEC2 converts a tag map to EC2 tags sorted by key.
func ToEC2(tags map[string]string) []ec2Types.Tag {
	out := make([]ec2Types.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		out = append(out, ec2Types.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	return out
}

// ToMap converts EC2 tags to map[string]string.
func ToMap(src []ec2Types.Tag) map[string]string {
	tags := make(map[string]string, len(src))

	for _, t := range src {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}

	return tags
}

// For testing, we need sorted keys
func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
