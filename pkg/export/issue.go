// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"fmt"
)

// 🏷️ Reason classifies why a task did not produce a file
type Reason string

const (
	ReasonListingFailure        Reason = "listing-failure"
	ReasonUnsupportedExtension  Reason = "unsupported-extension"
	ReasonMissingCloudReference Reason = "missing-cloud-reference"
	ReasonAlreadyExists         Reason = "already-exists"
	ReasonWriteFailure          Reason = "write-failure"
	ReasonUnsafePath            Reason = "unsafe-path"
	ReasonCancelled             Reason = "cancelled"
)

// Outcome groups reasons into the report counters
type Outcome int

const (
	OutcomeProcessed Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeNotProcessed
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "not processed"
	}
}

// Outcome returns the counter an issue with this reason lands in
func (r Reason) Outcome() Outcome {
	switch r {
	case ReasonUnsupportedExtension, ReasonAlreadyExists:
		return OutcomeSkipped
	case ReasonCancelled:
		return OutcomeNotProcessed
	default:
		return OutcomeFailed
	}
}

// ⚠️ Issue records a task that was skipped or failed
type Issue struct {
	Path   string // Relative path of the file or folder
	Reason Reason
	Err    error // Underlying error, if any
}

func (i Issue) String() string {
	if i.Err != nil {
		return fmt.Sprintf("%s: %s: %v", i.Path, i.Reason, i.Err)
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Reason)
}
