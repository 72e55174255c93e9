/*
 * Copyright (C) 2022 IBM, Inc.
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

package test

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const retryInterval = 50 * time.Millisecond

type failureRecorder struct {
	failed bool
	errors []string
}

func (f *failureRecorder) Errorf(format string, args ...interface{}) {
	f.failed = true
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *failureRecorder) FailNow() {
	f.failed = true
	runtime.Goexit()
}

// Eventually retries a test until it eventually succeeds. If the timeout is reached, the test fails
// with the same failure as its last execution.
func Eventually(t *testing.T, timeout time.Duration, testFunc func(_ require.TestingT)) {
	deadline := time.After(timeout)
	var last *failureRecorder
	for {
		rec := &failureRecorder{}
		done := make(chan struct{})
		go func() {
			defer close(done)
			testFunc(rec)
		}()
		select {
		case <-done:
			if !rec.failed {
				return
			}
			last = rec
		case <-deadline:
			fail(t, timeout, last)
			return
		}
		select {
		case <-deadline:
			fail(t, timeout, last)
			return
		case <-time.After(retryInterval):
		}
	}
}

func fail(t *testing.T, timeout time.Duration, last *failureRecorder) {
	if last == nil {
		t.Errorf("test did not complete after %v", timeout)
		return
	}
	for _, e := range last.errors {
		t.Errorf("%s", e)
	}
	if len(last.errors) == 0 {
		t.Errorf("test failed after %v", timeout)
	}
}
