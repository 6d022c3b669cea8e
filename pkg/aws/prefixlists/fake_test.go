package prefixlists

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	"github.com/aws/smithy-go"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/tags"
)

type fakeAssumeRole struct{}

func (fakeAssumeRole) EC2(string, string) func(o *ec2.Options)     { return func(*ec2.Options) {} }
func (fakeAssumeRole) WAFV2(string, string) func(o *wafv2.Options) { return func(*wafv2.Options) {} }
func (fakeAssumeRole) RAM(string, string) func(o *ram.Options)     { return func(*ram.Options) {} }

type fakePrefixList struct {
	list    ec2Types.ManagedPrefixList
	entries []string
}

// fakeEC2 keeps prefix lists in memory and enforces the EC2 limits the
// client relies on: versions, capacity and entries per call.
type fakeEC2 struct {
	mu sync.Mutex

	lists     []*fakePrefixList
	resizeErr error

	creates  []*ec2.CreateManagedPrefixListInput
	modifies []*ec2.ModifyManagedPrefixListInput
	tagCalls []*ec2.CreateTagsInput
}

func (f *fakeEC2) seed(name string, maxEntries int32, resourceTags map[string]string, entries ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := fmt.Sprintf("pl-%04d", len(f.lists)+1)
	f.lists = append(f.lists, &fakePrefixList{
		list: ec2Types.ManagedPrefixList{
			PrefixListId:   aws.String(id),
			PrefixListArn:  aws.String("arn:aws:ec2:eu-west-1:123456789012:prefix-list/" + id),
			PrefixListName: aws.String(name),
			AddressFamily:  aws.String(AddressFamilyIPv4),
			MaxEntries:     aws.Int32(maxEntries),
			Version:        aws.Int64(1),
			State:          ec2Types.PrefixListStateCreateComplete,
			Tags:           tags.ToEC2(resourceTags),
		},
		entries: append([]string(nil), entries...),
	})

	return id
}

func (f *fakeEC2) byName(name string) []*fakePrefixList {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*fakePrefixList
	for _, pl := range f.lists {
		if aws.ToString(pl.list.PrefixListName) == name {
			out = append(out, pl)
		}
	}

	return out
}

func (f *fakeEC2) find(id string) *fakePrefixList {
	for _, pl := range f.lists {
		if aws.ToString(pl.list.PrefixListId) == id {
			return pl
		}
	}

	return nil
}

func (f *fakeEC2) DescribeManagedPrefixLists(_ context.Context, params *ec2.DescribeManagedPrefixListsInput, _ ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for _, filter := range params.Filters {
		if aws.ToString(filter.Name) == "prefix-list-name" {
			names = filter.Values
		}
	}

	out := &ec2.DescribeManagedPrefixListsOutput{}
	for _, pl := range f.lists {
		if len(params.PrefixListIds) > 0 && !contains(params.PrefixListIds, aws.ToString(pl.list.PrefixListId)) {
			continue
		}
		if len(names) > 0 && !contains(names, aws.ToString(pl.list.PrefixListName)) {
			continue
		}
		out.PrefixLists = append(out.PrefixLists, pl.list)
	}

	return out, nil
}

func (f *fakeEC2) GetManagedPrefixListEntries(_ context.Context, params *ec2.GetManagedPrefixListEntriesInput, _ ...func(*ec2.Options)) (*ec2.GetManagedPrefixListEntriesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pl := f.find(aws.ToString(params.PrefixListId))
	if pl == nil {
		return nil, &smithy.GenericAPIError{Code: "InvalidPrefixListID.NotFound"}
	}

	out := &ec2.GetManagedPrefixListEntriesOutput{}
	for _, cidr := range pl.entries {
		out.Entries = append(out.Entries, ec2Types.PrefixListEntry{Cidr: aws.String(cidr)})
	}

	return out, nil
}

func (f *fakeEC2) CreateManagedPrefixList(_ context.Context, params *ec2.CreateManagedPrefixListInput, _ ...func(*ec2.Options)) (*ec2.CreateManagedPrefixListOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates = append(f.creates, params)

	if len(params.Entries) > maxEntriesPerCall {
		return nil, &smithy.GenericAPIError{Code: "InvalidParameterValue", Message: "too many entries"}
	}
	if int32(len(params.Entries)) > aws.ToInt32(params.MaxEntries) {
		return nil, &smithy.GenericAPIError{Code: "PrefixListMaxEntriesExceeded"}
	}

	id := fmt.Sprintf("pl-%04d", len(f.lists)+1)
	pl := &fakePrefixList{
		list: ec2Types.ManagedPrefixList{
			PrefixListId:   aws.String(id),
			PrefixListArn:  aws.String("arn:aws:ec2:eu-west-1:123456789012:prefix-list/" + id),
			PrefixListName: params.PrefixListName,
			AddressFamily:  params.AddressFamily,
			MaxEntries:     params.MaxEntries,
			Version:        aws.Int64(1),
			State:          ec2Types.PrefixListStateCreateComplete,
		},
	}
	for _, spec := range params.TagSpecifications {
		pl.list.Tags = append(pl.list.Tags, spec.Tags...)
	}
	for _, entry := range params.Entries {
		pl.entries = append(pl.entries, aws.ToString(entry.Cidr))
	}
	f.lists = append(f.lists, pl)

	created := pl.list
	created.State = ec2Types.PrefixListStateCreateInProgress
	return &ec2.CreateManagedPrefixListOutput{PrefixList: &created}, nil
}

func (f *fakeEC2) ModifyManagedPrefixList(_ context.Context, params *ec2.ModifyManagedPrefixListInput, _ ...func(*ec2.Options)) (*ec2.ModifyManagedPrefixListOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.modifies = append(f.modifies, params)

	pl := f.find(aws.ToString(params.PrefixListId))
	if pl == nil {
		return nil, &smithy.GenericAPIError{Code: "InvalidPrefixListID.NotFound"}
	}

	if params.MaxEntries != nil {
		if f.resizeErr != nil {
			return nil, f.resizeErr
		}
		pl.list.MaxEntries = params.MaxEntries
	}

	if len(params.AddEntries) > 0 || len(params.RemoveEntries) > 0 {
		if aws.ToInt64(params.CurrentVersion) != aws.ToInt64(pl.list.Version) {
			return nil, &smithy.GenericAPIError{Code: "IncorrectState", Message: "version mismatch"}
		}
		if len(params.AddEntries) > maxEntriesPerCall || len(params.RemoveEntries) > maxEntriesPerCall {
			return nil, &smithy.GenericAPIError{Code: "InvalidParameterValue", Message: "too many entries"}
		}

		var remaining []string
		for _, cidr := range pl.entries {
			removed := false
			for _, entry := range params.RemoveEntries {
				if aws.ToString(entry.Cidr) == cidr {
					removed = true
				}
			}
			if !removed {
				remaining = append(remaining, cidr)
			}
		}
		for _, entry := range params.AddEntries {
			remaining = append(remaining, aws.ToString(entry.Cidr))
		}
		if int32(len(remaining)) > aws.ToInt32(pl.list.MaxEntries) {
			return nil, &smithy.GenericAPIError{Code: "PrefixListMaxEntriesExceeded"}
		}
		pl.entries = remaining
	}

	pl.list.Version = aws.Int64(aws.ToInt64(pl.list.Version) + 1)
	pl.list.State = ec2Types.PrefixListStateModifyComplete

	return &ec2.ModifyManagedPrefixListOutput{PrefixList: &pl.list}, nil
}

func (f *fakeEC2) CreateTags(_ context.Context, params *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tagCalls = append(f.tagCalls, params)

	for _, id := range params.Resources {
		pl := f.find(id)
		if pl == nil {
			continue
		}
		merged := tags.ToMap(pl.list.Tags)
		for k, v := range tags.ToMap(params.Tags) {
			merged[k] = v
		}
		pl.list.Tags = tags.ToEC2(merged)
	}

	return &ec2.CreateTagsOutput{}, nil
}

func (f *fakeEC2) entryModifies() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, m := range f.modifies {
		if len(m.AddEntries) > 0 || len(m.RemoveEntries) > 0 {
			n++
		}
	}

	return n
}

type fakeRAM struct {
	mu     sync.Mutex
	shares []ramTypes.ResourceShare
	inputs []*ram.CreateResourceShareInput
	// resources maps a share ARN to the resource ARNs it contains.
	resources    map[string][]string
	associations []*ram.AssociateResourceShareInput
	// createFailures makes the next n CreateResourceShare calls fail.
	createFailures int
}

func (f *fakeRAM) GetResourceShares(_ context.Context, params *ram.GetResourceSharesInput, _ ...func(*ram.Options)) (*ram.GetResourceSharesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &ram.GetResourceSharesOutput{}
	for _, share := range f.shares {
		if params.Name != nil && aws.ToString(share.Name) != aws.ToString(params.Name) {
			continue
		}
		out.ResourceShares = append(out.ResourceShares, share)
	}

	return out, nil
}

func (f *fakeRAM) CreateResourceShare(_ context.Context, params *ram.CreateResourceShareInput, _ ...func(*ram.Options)) (*ram.CreateResourceShareOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, params)
	if f.createFailures > 0 {
		f.createFailures--
		return nil, &smithy.GenericAPIError{Code: "ServiceUnavailableException", Message: "try again later"}
	}

	share := ramTypes.ResourceShare{
		Name:             params.Name,
		ResourceShareArn: aws.String(fmt.Sprintf("arn:aws:ram:eu-west-1:123456789012:resource-share/%d", len(f.shares)+1)),
		Status:           ramTypes.ResourceShareStatusActive,
		Tags:             params.Tags,
	}
	f.shares = append(f.shares, share)
	f.addResources(aws.ToString(share.ResourceShareArn), params.ResourceArns...)

	return &ram.CreateResourceShareOutput{ResourceShare: &share}, nil
}

func (f *fakeRAM) ListResources(_ context.Context, params *ram.ListResourcesInput, _ ...func(*ram.Options)) (*ram.ListResourcesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &ram.ListResourcesOutput{}
	for shareArn, arns := range f.resources {
		if len(params.ResourceShareArns) > 0 && !contains(params.ResourceShareArns, shareArn) {
			continue
		}
		for _, arn := range arns {
			if len(params.ResourceArns) > 0 && !contains(params.ResourceArns, arn) {
				continue
			}
			out.Resources = append(out.Resources, ramTypes.Resource{
				Arn:              aws.String(arn),
				ResourceShareArn: aws.String(shareArn),
				Status:           ramTypes.ResourceStatusAvailable,
			})
		}
	}

	return out, nil
}

func (f *fakeRAM) AssociateResourceShare(_ context.Context, params *ram.AssociateResourceShareInput, _ ...func(*ram.Options)) (*ram.AssociateResourceShareOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.associations = append(f.associations, params)
	f.addResources(aws.ToString(params.ResourceShareArn), params.ResourceArns...)

	return &ram.AssociateResourceShareOutput{}, nil
}

func (f *fakeRAM) addResources(shareArn string, arns ...string) {
	if f.resources == nil {
		f.resources = map[string][]string{}
	}
	f.resources[shareArn] = append(f.resources[shareArn], arns...)
}

// sharedIn returns the share ARNs containing arn.
func (f *fakeRAM) sharedIn(arn string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for shareArn, arns := range f.resources {
		if contains(arns, arn) {
			out = append(out, shareArn)
		}
	}

	return out
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
