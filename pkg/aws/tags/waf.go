package tags

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
	wafTypes "github.com/aws/aws-sdk-go-v2/service/wafv2/types"
)

// ToWAF converts a tag map to WAFv2 tags sorted by key.
func ToWAF(tags map[string]string) []wafTypes.Tag {
	out := make([]wafTypes.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		out = append(out, wafTypes.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	return out
}

// FromWAF converts WAFv2 tags to map[string]string.
func FromWAF(src []wafTypes.Tag) map[string]string {
	tags := make(map[string]string, len(src))
	for _, t := range src {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}

	return tags
}

// ToRAM converts a tag map to RAM tags sorted by key.
func ToRAM(tags map[string]string) []ramTypes.Tag {
	out := make([]ramTypes.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		out = append(out, ramTypes.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	return out
}

// FromRAM converts RAM tags to map[string]string.
func FromRAM(src []ramTypes.Tag) map[string]string {
	tags := make(map[string]string, len(src))
	for _, t := range src {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}

	return tags
}
