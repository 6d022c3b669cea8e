// Package ipranges parses and indexes the AWS published IP address ranges
// document (ip-ranges.json).
package ipranges

import (
	"context"
	"encoding/json"
	"net/netip"

	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// GlobalRegion is the region label AWS uses for prefixes not bound to a
// single region.
const GlobalRegion = "GLOBAL"

type IPVersion string

const (
	IPv4 IPVersion = "ipv4"
	IPv6 IPVersion = "ipv6"
)

// IPVersions lists the IP versions in processing order.
var IPVersions = []IPVersion{IPv4, IPv6}

// Range is a single published prefix.
type Range struct {
	Service   string
	Region    string
	IPVersion IPVersion
	Prefix    netip.Prefix
}

type document struct {
	SyncToken    string             `json:"syncToken"`
	CreateDate   string             `json:"createDate"`
	Prefixes     *[]json.RawMessage `json:"prefixes"`
	IPv6Prefixes *[]json.RawMessage `json:"ipv6_prefixes"`
}

type ipv4Entry struct {
	IPPrefix string `json:"ip_prefix"`
	Region   string `json:"region"`
	Service  string `json:"service"`
}

type ipv6Entry struct {
	IPv6Prefix string `json:"ipv6_prefix"`
	Region     string `json:"region"`
	Service    string `json:"service"`
}

// Parse validates raw and indexes its prefixes. A document without the
// prefixes or ipv6_prefixes arrays fails with DocumentParseError. Malformed
// individual entries are logged and skipped.
func Parse(ctx context.Context, raw []byte) (*Index, error) {
	logger := log.FromContext(ctx)

	var doc document
	err := json.Unmarshal(raw, &doc)
	if err != nil {
		return nil, microerror.Maskf(errors.DocumentParseError, "failed to decode IP ranges document: %s", err)
	}
	if doc.Prefixes == nil {
		return nil, microerror.Maskf(errors.DocumentParseError, "IP ranges document has no %q field", "prefixes")
	}
	if doc.IPv6Prefixes == nil {
		return nil, microerror.Maskf(errors.DocumentParseError, "IP ranges document has no %q field", "ipv6_prefixes")
	}

	index := newIndex(doc.SyncToken, doc.CreateDate)
	skipped := 0

	for i, rawEntry := range *doc.Prefixes {
		var entry ipv4Entry
		err = json.Unmarshal(rawEntry, &entry)
		if err != nil {
			logger.Info("Skipped malformed IP ranges entry", "field", "prefixes", "index", i, "reason", err.Error())
			skipped++
			continue
		}
		r, err := toRange(entry.Service, entry.Region, entry.IPPrefix, IPv4)
		if err != nil {
			logger.Info("Skipped invalid IP ranges entry", "field", "prefixes", "index", i, "reason", err.Error())
			skipped++
			continue
		}
		index.add(r)
	}

	for i, rawEntry := range *doc.IPv6Prefixes {
		var entry ipv6Entry
		err = json.Unmarshal(rawEntry, &entry)
		if err != nil {
			logger.Info("Skipped malformed IP ranges entry", "field", "ipv6_prefixes", "index", i, "reason", err.Error())
			skipped++
			continue
		}
		r, err := toRange(entry.Service, entry.Region, entry.IPv6Prefix, IPv6)
		if err != nil {
			logger.Info("Skipped invalid IP ranges entry", "field", "ipv6_prefixes", "index", i, "reason", err.Error())
			skipped++
			continue
		}
		index.add(r)
	}

	index.skipped = skipped
	logger.Info("Parsed IP ranges document",
		"sync-token", index.SyncToken,
		"create-date", index.CreateDate,
		"ranges", index.size,
		"skipped", skipped)

	return index, nil
}

func toRange(service, region, cidr string, version IPVersion) (Range, error) {
	if service == "" {
		return Range{}, microerror.Maskf(errors.DocumentParseError, "service must not be empty")
	}
	if region == "" {
		return Range{}, microerror.Maskf(errors.DocumentParseError, "region must not be empty")
	}
	if cidr == "" {
		return Range{}, microerror.Maskf(errors.DocumentParseError, "prefix must not be empty")
	}

	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return Range{}, microerror.Maskf(errors.DocumentParseError, "invalid prefix %q: %s", cidr, err)
	}
	if prefix.Addr().Is4() != (version == IPv4) {
		return Range{}, microerror.Maskf(errors.DocumentParseError, "prefix %q is not an %s prefix", cidr, version)
	}

	return Range{
		Service:   service,
		Region:    region,
		IPVersion: version,
		Prefix:    prefix.Masked(),
	}, nil
}
