/*
Copyright 2022.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controllers

import (
	"context"
	"sync"

	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/ipsets"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/prefixlists"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// fakePrefixListClient keeps managed prefix lists by name.
type fakePrefixListClient struct {
	mu sync.Mutex

	lists   map[string]*prefixlists.PrefixList
	entries map[string][]string
	// fail makes every Get for that name fail.
	fail map[string]error
	// panics makes every Get for that name panic.
	panics map[string]bool

	writes int
}

func newFakePrefixListClient() *fakePrefixListClient {
	return &fakePrefixListClient{
		lists:   map[string]*prefixlists.PrefixList{},
		entries: map[string][]string{},
		fail:    map[string]error{},
		panics:  map[string]bool{},
	}
}

func (f *fakePrefixListClient) Get(_ context.Context, input prefixlists.GetPrefixListInput) (prefixlists.PrefixList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.panics[input.Name] {
		panic("unexpected EC2 response")
	}
	if err := f.fail[input.Name]; err != nil {
		return prefixlists.PrefixList{}, err
	}

	pl, ok := f.lists[input.Name]
	if !ok {
		return prefixlists.PrefixList{}, microerror.Maskf(errors.PrefixListNotFoundError, "%s", input.Name)
	}

	return *pl, nil
}

func (f *fakePrefixListClient) GetEntries(_ context.Context, input prefixlists.GetEntriesInput) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.entries[input.PrefixListId]...), nil
}

func (f *fakePrefixListClient) Create(_ context.Context, input prefixlists.CreatePrefixListInput) (prefixlists.CreatePrefixListOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes++
	id := "pl-" + input.Name
	f.lists[input.Name] = &prefixlists.PrefixList{
		PrefixListId:  id,
		Name:          input.Name,
		AddressFamily: input.AddressFamily,
		MaxEntries:    input.MaxEntries,
		Version:       1,
		State:         prefixlists.StateCreateComplete,
		Tags:          input.Tags,
	}
	f.entries[id] = append([]string(nil), input.Entries...)

	return prefixlists.CreatePrefixListOutput{PrefixListId: id, Version: 1, MaxEntries: input.MaxEntries}, nil
}

func (f *fakePrefixListClient) Update(_ context.Context, input prefixlists.UpdatePrefixListInput) (prefixlists.UpdatePrefixListOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes++
	var pl *prefixlists.PrefixList
	for _, candidate := range f.lists {
		if candidate.PrefixListId == input.PrefixListId {
			pl = candidate
		}
	}
	if input.MaxEntries > 0 {
		pl.MaxEntries = input.MaxEntries
	}

	remaining := []string{}
	for _, entry := range f.entries[pl.PrefixListId] {
		if !contains(input.RemoveEntries, entry) {
			remaining = append(remaining, entry)
		}
	}
	f.entries[pl.PrefixListId] = append(remaining, input.AddEntries...)
	pl.Version++

	return prefixlists.UpdatePrefixListOutput{Version: pl.Version, MaxEntries: input.MaxEntries}, nil
}

func (f *fakePrefixListClient) Share(context.Context, prefixlists.SharePrefixListInput) error {
	return nil
}

type fakeIPSet struct {
	set       ipsets.IPSet
	addresses []string
}

// fakeIPSetClient keeps managed IP sets by scope and name.
type fakeIPSetClient struct {
	mu sync.Mutex

	sets   map[string]*fakeIPSet
	calls  int
	writes int
}

func newFakeIPSetClient() *fakeIPSetClient {
	return &fakeIPSetClient{sets: map[string]*fakeIPSet{}}
}

func (f *fakeIPSetClient) Get(_ context.Context, input ipsets.GetIPSetInput) (ipsets.IPSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	s, ok := f.sets[string(input.Scope)+"/"+input.Name]
	if !ok {
		return ipsets.IPSet{}, microerror.Maskf(errors.IPSetNotFoundError, "%s", input.Name)
	}

	return s.set, nil
}

func (f *fakeIPSetClient) GetAddresses(_ context.Context, input ipsets.GetAddressesInput) (ipsets.GetAddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	s := f.sets[string(input.Scope)+"/"+input.Name]
	return ipsets.GetAddressesOutput{Addresses: s.addresses, LockToken: s.set.LockToken}, nil
}

func (f *fakeIPSetClient) Create(_ context.Context, input ipsets.CreateIPSetInput) (ipsets.CreateIPSetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.writes++
	key := string(input.Scope) + "/" + input.Name
	f.sets[key] = &fakeIPSet{
		set: ipsets.IPSet{
			Id:        key,
			ARN:       "arn:" + key,
			Name:      input.Name,
			Scope:     input.Scope,
			LockToken: "1",
			Tags:      input.Tags,
		},
		addresses: input.Addresses,
	}

	return ipsets.CreateIPSetOutput{Id: key, ARN: "arn:" + key, LockToken: "1"}, nil
}

func (f *fakeIPSetClient) Update(_ context.Context, input ipsets.UpdateIPSetInput) (ipsets.UpdateIPSetOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.writes++
	s := f.sets[string(input.Scope)+"/"+input.Name]
	s.addresses = input.Addresses
	for k, v := range input.Tags {
		s.set.Tags[k] = v
	}

	return ipsets.UpdateIPSetOutput{LockToken: "2"}, nil
}

type fakeMetrics struct {
	mu      sync.Mutex
	units   map[string]int
	desired map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{units: map[string]int{}, desired: map[string]int{}}
}

func (f *fakeMetrics) RecordUnit(kind, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units[kind+"/"+outcome]++
}

func (f *fakeMetrics) RecordDesired(resource string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.desired[resource] = count
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
