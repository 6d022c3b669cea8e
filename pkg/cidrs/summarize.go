// Package cidrs implements CIDR set operations used to build the desired
// membership of managed prefix lists and IP sets.
package cidrs

import (
	"net/netip"
	"sort"
)

// Summarize collapses prefixes into the smallest sorted set of
// non-overlapping prefixes that covers exactly the same addresses.
//
// IPv4 and IPv6 prefixes are summarized independently, IPv4 first. Invalid
// prefixes are dropped.
func Summarize(prefixes []netip.Prefix) []netip.Prefix {
	var v4, v6 []netip.Prefix
	for _, p := range prefixes {
		if !p.IsValid() {
			continue
		}
		p = p.Masked()
		if p.Addr().Is4() {
			v4 = append(v4, p)
		} else {
			v6 = append(v6, p)
		}
	}

	return append(collapse(v4), collapse(v6)...)
}

// collapse summarizes prefixes of a single address family.
func collapse(prefixes []netip.Prefix) []netip.Prefix {
	if len(prefixes) == 0 {
		return nil
	}

	sorted := make([]netip.Prefix, len(prefixes))
	copy(sorted, prefixes)
	Sort(sorted)

	// The stack holds sorted, non-overlapping prefixes. Only its top can
	// contain or be a sibling of the next prefix, because every prefix below
	// the top ends before the top starts.
	stack := make([]netip.Prefix, 0, len(sorted))
	for _, p := range sorted {
		if n := len(stack); n > 0 && stack[n-1].Contains(p.Addr()) && stack[n-1].Bits() <= p.Bits() {
			continue
		}
		stack = append(stack, p)

		for len(stack) >= 2 {
			parent, ok := mergeSiblings(stack[len(stack)-2], stack[len(stack)-1])
			if !ok {
				break
			}
			stack = stack[:len(stack)-2]
			stack = append(stack, parent)
		}
	}

	return stack
}

// mergeSiblings returns the parent of a and b when both are the two halves of
// the same prefix, with a being the lower half.
func mergeSiblings(a, b netip.Prefix) (netip.Prefix, bool) {
	if a.Bits() != b.Bits() || a.Bits() == 0 || a.Addr() == b.Addr() {
		return netip.Prefix{}, false
	}

	parentA, err := a.Addr().Prefix(a.Bits() - 1)
	if err != nil {
		return netip.Prefix{}, false
	}
	parentB, err := b.Addr().Prefix(b.Bits() - 1)
	if err != nil {
		return netip.Prefix{}, false
	}
	if parentA != parentB || parentA.Addr() != a.Addr() {
		return netip.Prefix{}, false
	}

	return parentA, true
}

// Sort orders prefixes by address, then by prefix length, shorter first.
func Sort(prefixes []netip.Prefix) {
	sort.Slice(prefixes, func(i, j int) bool {
		if c := prefixes[i].Addr().Compare(prefixes[j].Addr()); c != 0 {
			return c < 0
		}
		return prefixes[i].Bits() < prefixes[j].Bits()
	})
}

// Strings formats prefixes in CIDR notation.
func Strings(prefixes []netip.Prefix) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, p.String())
	}

	return out
}

// Canonical parses cidr and returns it with host bits cleared, in the same
// notation Strings produces.
func Canonical(cidr string) (string, error) {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return "", err
	}

	return p.Masked().String(), nil
}
