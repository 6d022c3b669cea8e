package ipranges

import (
	"net/netip"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/cidrs"
)

// Index holds the prefixes of a parsed document keyed by service and region.
// It is read-only once Parse returns and safe for concurrent use.
type Index struct {
	SyncToken  string
	CreateDate string

	// service -> region -> prefixes
	services map[string]map[string]*regionPrefixes
	size     int
	skipped  int
}

type regionPrefixes struct {
	v4 sets.Set[netip.Prefix]
	v6 sets.Set[netip.Prefix]
}

func newIndex(syncToken, createDate string) *Index {
	return &Index{
		SyncToken:  syncToken,
		CreateDate: createDate,
		services:   map[string]map[string]*regionPrefixes{},
	}
}

// NewIndex builds an index from already validated ranges.
func NewIndex(syncToken, createDate string, ranges ...Range) *Index {
	index := newIndex(syncToken, createDate)
	for _, r := range ranges {
		index.add(r)
	}

	return index
}

func (x *Index) add(r Range) {
	regions, ok := x.services[r.Service]
	if !ok {
		regions = map[string]*regionPrefixes{}
		x.services[r.Service] = regions
	}
	prefixes, ok := regions[r.Region]
	if !ok {
		prefixes = &regionPrefixes{
			v4: sets.New[netip.Prefix](),
			v6: sets.New[netip.Prefix](),
		}
		regions[r.Region] = prefixes
	}

	set := prefixes.v4
	if r.IPVersion == IPv6 {
		set = prefixes.v6
	}
	if !set.Has(r.Prefix) {
		set.Insert(r.Prefix)
		x.size++
	}
}

// Prefixes returns the deduplicated, sorted prefixes of service for the given
// IP version. When regions is empty every region of the service is included,
// GLOBAL among them. Service names are case-sensitive.
func (x *Index) Prefixes(service string, regions []string, version IPVersion) []netip.Prefix {
	serviceRegions, ok := x.services[service]
	if !ok {
		return nil
	}

	selected := regions
	if len(selected) == 0 {
		selected = make([]string, 0, len(serviceRegions))
		for region := range serviceRegions {
			selected = append(selected, region)
		}
	}

	result := sets.New[netip.Prefix]()
	for _, region := range selected {
		prefixes, ok := serviceRegions[region]
		if !ok {
			continue
		}
		if version == IPv6 {
			result = result.Union(prefixes.v6)
		} else {
			result = result.Union(prefixes.v4)
		}
	}

	out := result.UnsortedList()
	cidrs.Sort(out)

	return out
}

// Services returns the sorted service labels present in the document.
func (x *Index) Services() []string {
	out := make([]string, 0, len(x.services))
	for service := range x.services {
		out = append(out, service)
	}
	sort.Strings(out)

	return out
}

// Regions returns the sorted regions present for service.
func (x *Index) Regions(service string) []string {
	out := make([]string, 0, len(x.services[service]))
	for region := range x.services[service] {
		out = append(out, region)
	}
	sort.Strings(out)

	return out
}

// Len is the number of distinct (service, region, prefix) ranges indexed.
func (x *Index) Len() int {
	return x.size
}

// Skipped is the number of entries Parse dropped as malformed.
func (x *Index) Skipped() int {
	return x.skipped
}
