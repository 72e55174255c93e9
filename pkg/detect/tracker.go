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

// run is a closed sequence of consecutive band members.
type run struct {
	start float64
	end   float64
	peak  float64
}

func (r run) duration() float64 {
	return r.end - r.start
}

// runTracker follows one band over a time-ordered deviation sequence.
// It is either idle or inside a run that started at start and whose last
// member sample was seen at end.
type runTracker struct {
	band  Band
	open  bool
	start float64
	end   float64
	peak  float64
}

// push feeds one sample. It returns the run closed by this sample, if any.
func (r *runTracker) push(t, deviation float64) (run, bool) {
	if r.band.Contains(deviation) {
		if !r.open {
			r.open = true
			r.start = t
			r.peak = deviation
		} else if deviation > r.peak {
			r.peak = deviation
		}
		r.end = t
		return run{}, false
	}
	return r.close()
}

// close ends the current run, if one is open.
func (r *runTracker) close() (run, bool) {
	if !r.open {
		return run{}, false
	}
	r.open = false
	return run{start: r.start, end: r.end, peak: r.peak}, true
}
