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

// Stream is the incremental form of the detector for a single channel.
// Samples must be pushed in non-decreasing time order; Flush closes the runs
// still open at the end of the input.
type Stream struct {
	axis   string
	rules  RuleConfig
	tracks []*runTracker
}

// NewStream creates a detector for one channel.
func NewStream(axis string, rules RuleConfig) (*Stream, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return newStream(axis, rules), nil
}

func newStream(axis string, rules RuleConfig) *Stream {
	bands := rules.Bands()
	tracks := make([]*runTracker, 0, len(bands))
	for _, b := range bands {
		tracks = append(tracks, &runTracker{band: b})
	}
	return &Stream{axis: axis, rules: rules, tracks: tracks}
}

// Axis returns the channel name the stream reports events for.
func (s *Stream) Axis() string {
	return s.axis
}

// Push feeds one sample and returns the events closed by it.
func (s *Stream) Push(t, deviation float64) []Event {
	var events []Event
	for _, tr := range s.tracks {
		if r, closed := tr.push(t, deviation); closed {
			events = s.emit(events, tr.band, r)
		}
	}
	return events
}

// Flush force-closes every open run, as if the input ended here.
func (s *Stream) Flush() []Event {
	var events []Event
	for _, tr := range s.tracks {
		if r, closed := tr.close(); closed {
			events = s.emit(events, tr.band, r)
		}
	}
	return events
}

func (s *Stream) emit(events []Event, b Band, r run) []Event {
	if r.duration() < s.rules.T {
		return events
	}
	return append(events, Event{
		AxisName:     s.axis,
		EventType:    b.Type,
		StartTime:    r.start,
		EndTime:      r.end,
		DurationS:    r.duration(),
		Threshold:    b.Threshold,
		MaxDeviation: r.peak,
	})
}
