/*
 * Copyright (C) 2026 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package detect

import (
	"fmt"
	"math"
)

// RuleConfig holds the severity thresholds and the minimum sustained duration.
// A single RuleConfig is shared, read-only, by every channel of a scoring run.
type RuleConfig struct {
	MinC float64 `yaml:"minC" json:"minC" doc:"alert threshold on the non-negative deviation"`
	MaxC float64 `yaml:"maxC" json:"maxC" doc:"error threshold on the non-negative deviation; must not be lower than minC"`
	T    float64 `yaml:"t" json:"t" doc:"minimum sustained duration of a run, in time units of the input"`
}

// Validate rejects configurations that cannot produce meaningful runs.
func (c RuleConfig) Validate() error {
	switch {
	case math.IsNaN(c.MinC) || math.IsNaN(c.MaxC) || math.IsNaN(c.T):
		return &ConfigurationError{Rules: c, Reason: "thresholds and duration must be numbers"}
	case c.MinC > c.MaxC:
		return &ConfigurationError{Rules: c, Reason: fmt.Sprintf("minC (%v) is greater than maxC (%v)", c.MinC, c.MaxC)}
	case c.T < 0:
		return &ConfigurationError{Rules: c, Reason: fmt.Sprintf("negative minimum duration T (%v)", c.T)}
	}
	return nil
}

// Band is one severity track of the detector. A deviation sample is a member
// of the band when Contains reports true; Threshold is the value reported on
// the events the band produces.
type Band struct {
	Type      EventType
	Threshold float64
	Contains  func(deviation float64) bool
}

// Bands returns the severity tracks derived from the configuration, in the
// order their runs are closed when several close on the same sample.
// ERROR owns the shared boundary: a deviation equal to MaxC is never an ALERT.
func (c RuleConfig) Bands() []Band {
	minC, maxC := c.MinC, c.MaxC
	return []Band{{
		Type:      EventError,
		Threshold: maxC,
		Contains:  func(d float64) bool { return d >= maxC },
	}, {
		Type:      EventAlert,
		Threshold: minC,
		Contains:  func(d float64) bool { return d >= minC && d < maxC },
	}}
}
