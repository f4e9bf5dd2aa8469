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

package install

import "context"

// 📊 StepOutcome classifies what happened to one step
type StepOutcome int

const (
	OutcomePending StepOutcome = iota
	OutcomeSuccess
	OutcomeFailure
	OutcomeSkipped
)

// String returns a string representation of StepOutcome
func (o StepOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// 🧱 Step is one unit of an installation plan
type Step struct {
	// Name identifies the step in reports
	Name string
	// Required steps abort the plan on failure unless force-mode is set
	Required bool
	// Fatal steps abort the plan on failure even in force-mode. Only the
	// backup step is fatal: no destructive action proceeds without a
	// durable backup.
	Fatal bool
	// Skip marks the step skipped up-front (e.g. smoke test under --skip-tests).
	// Skipped steps count as passed in the success rate.
	Skip bool
	// Run executes the step; nil means trivially successful
	Run func(ctx context.Context) error
}

// 📋 Plan is an ordered installation procedure for one strategy.
// It is immutable once built.
type Plan struct {
	strategy Strategy
	steps    []Step
}

// 🏭 NewPlan creates a plan from an ordered step list
func NewPlan(strategy Strategy, steps []Step) *Plan {
	copied := make([]Step, len(steps))
	copy(copied, steps)
	return &Plan{strategy: strategy, steps: copied}
}

// Strategy returns the strategy this plan was built for
func (p *Plan) Strategy() Strategy {
	return p.strategy
}

// Steps returns a copy of the plan's steps in execution order
func (p *Plan) Steps() []Step {
	copied := make([]Step, len(p.steps))
	copy(copied, p.steps)
	return copied
}

// Len returns the number of steps in the plan
func (p *Plan) Len() int {
	return len(p.steps)
}
