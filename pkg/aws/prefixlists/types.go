package prefixlists

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
)

type State string

// Enum values for PrefixListState
const (
	StateCreateInProgress  State = "create-in-progress"
	StateCreateComplete    State = "create-complete"
	StateCreateFailed      State = "create-failed"
	StateModifyInProgress  State = "modify-in-progress"
	StateModifyComplete    State = "modify-complete"
	StateModifyFailed      State = "modify-failed"
	StateRestoreInProgress State = "restore-in-progress"
	StateRestoreComplete   State = "restore-complete"
	StateRestoreFailed     State = "restore-failed"
	StateDeleteInProgress  State = "delete-in-progress"
	StateDeleteComplete    State = "delete-complete"
	StateDeleteFailed      State = "delete-failed"
	StateUnknown           State = "unknown"
)

// IsStable tells whether the prefix list accepts a new modification.
func (s State) IsStable() bool {
	return s == StateCreateComplete || s == StateModifyComplete || s == StateRestoreComplete
}

// IsFailed tells whether the last operation on the prefix list failed or
// the prefix list is gone.
func (s State) IsFailed() bool {
	switch s {
	case StateCreateFailed, StateModifyFailed, StateRestoreFailed,
		StateDeleteInProgress, StateDeleteComplete, StateDeleteFailed:
		return true
	}

	return false
}

const (
	AddressFamilyIPv4 = "IPv4"
	AddressFamilyIPv6 = "IPv6"
)

// AddressFamily maps an IP version to the EC2 address family.
func AddressFamily(version ipranges.IPVersion) string {
	if version == ipranges.IPv6 {
		return AddressFamilyIPv6
	}

	return AddressFamilyIPv4
}

// PrefixList is the part of an EC2 managed prefix list the updater cares
// about.
type PrefixList struct {
	PrefixListId  string
	PrefixListArn string
	Name          string
	AddressFamily string
	MaxEntries    int32
	Version       int64
	State         State
	StateMessage  string
	Tags          map[string]string
}

func toPrefixList(src ec2Types.ManagedPrefixList) PrefixList {
	state := State(src.State)
	if state == "" {
		state = StateUnknown
	}

	return PrefixList{
		PrefixListId:  aws.ToString(src.PrefixListId),
		PrefixListArn: aws.ToString(src.PrefixListArn),
		Name:          aws.ToString(src.PrefixListName),
		AddressFamily: aws.ToString(src.AddressFamily),
		MaxEntries:    aws.ToInt32(src.MaxEntries),
		Version:       aws.ToInt64(src.Version),
		State:         state,
		StateMessage:  aws.ToString(src.StateMessage),
		Tags:          tags.ToMap(src.Tags),
	}
}

// maxEntriesPerCall is the EC2 limit of entries added or removed in one
// create or modify call.
const maxEntriesPerCall = 100

func toAddEntries(cidrs []string) []ec2Types.AddPrefixListEntry {
	out := make([]ec2Types.AddPrefixListEntry, 0, len(cidrs))
	for _, cidr := range cidrs {
		out = append(out, ec2Types.AddPrefixListEntry{
			Cidr:        aws.String(cidr),
			Description: aws.String(tags.Description),
		})
	}

	return out
}

func toRemoveEntries(cidrs []string) []ec2Types.RemovePrefixListEntry {
	out := make([]ec2Types.RemovePrefixListEntry, 0, len(cidrs))
	for _, cidr := range cidrs {
		out = append(out, ec2Types.RemovePrefixListEntry{
			Cidr: aws.String(cidr),
		})
	}

	return out
}

// chunk splits s into consecutive slices of at most size elements.
func chunk(s []string, size int) [][]string {
	var out [][]string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if len(s) > 0 {
		out = append(out, s)
	}

	return out
}
