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
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Summary lists the result of every unit of a run, sorted by unit ID.
type Summary struct {
	SyncToken  string
	CreateDate string
	Results    []Result
}

func (s Summary) Created() []Result { return s.with(OutcomeCreated) }
func (s Summary) Updated() []Result { return s.with(OutcomeUpdated) }
func (s Summary) Skipped() []Result { return s.with(OutcomeSkipped) }
func (s Summary) Failed() []Result  { return s.with(OutcomeFailed) }

func (s Summary) with(outcome Outcome) []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Outcome == outcome {
			out = append(out, r)
		}
	}

	return out
}

// Err aggregates the errors of failed units, nil when none failed.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", r.Unit.ID(), r.Err))
	}

	return utilerrors.NewAggregate(errs)
}
