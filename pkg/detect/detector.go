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
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

var dlog = logrus.WithField("component", "detect")

// Series is the deviation sequence of one channel.
type Series struct {
	Axis       string
	Times      []float64
	Deviations []float64
}

// Options tunes DetectChannels.
type Options struct {
	// Parallel runs the channels concurrently. The output is identical to the sequential run.
	Parallel bool
	// MaxGoroutines bounds the concurrency when Parallel is set; 0 means GOMAXPROCS.
	MaxGoroutines int
}

// Detect returns the ALERT and ERROR events of one channel, in the order their runs close.
func Detect(axis string, times, deviations []float64, rules RuleConfig) ([]Event, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if len(times) != len(deviations) {
		return nil, &ShapeMismatchError{Axis: axis, Times: len(times), Deviations: len(deviations)}
	}
	s := newStream(axis, rules)
	var events []Event
	for i := range times {
		events = append(events, s.Push(times[i], deviations[i])...)
	}
	return append(events, s.Flush()...), nil
}

// DetectChannels runs Detect on every series and concatenates the events in series order.
func DetectChannels(series []Series, rules RuleConfig, opts Options) ([]Event, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	detectOne := func(s *Series) ([]Event, error) {
		return Detect(s.Axis, s.Times, s.Deviations, rules)
	}

	var perChannel [][]Event
	if opts.Parallel {
		var err error
		mapper := iter.Mapper[Series, []Event]{MaxGoroutines: opts.MaxGoroutines}
		perChannel, err = mapper.MapErr(series, detectOne)
		if err != nil {
			return nil, err
		}
	} else {
		perChannel = make([][]Event, 0, len(series))
		for i := range series {
			events, err := detectOne(&series[i])
			if err != nil {
				return nil, err
			}
			perChannel = append(perChannel, events)
		}
	}

	var all []Event
	for i, events := range perChannel {
		dlog.Debugf("axis %s: %d events", series[i].Axis, len(events))
		all = append(all, events...)
	}
	return all, nil
}
