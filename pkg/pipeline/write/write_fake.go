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

package write

import (
	"sync"

	"github.com/robotpm/pm-pipeline/pkg/config"
	log "github.com/sirupsen/logrus"
)

// Fake keeps every record in memory, for tests
type Fake struct {
	allRecords []config.GenericMap
	mutex      sync.RWMutex
	notify     chan struct{}
	closed     bool
}

// Write stores in memory all records.
func (w *Fake) Write(in config.GenericMap) {
	log.Trace("entering Fake Write")
	w.mutex.Lock()
	w.allRecords = append(w.allRecords, in.Copy())
	w.mutex.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Close marks the writer as closed
func (w *Fake) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.closed = true
	return nil
}

// AllRecords returns a copy of the records written so far
func (w *Fake) AllRecords() []config.GenericMap {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	out := make([]config.GenericMap, len(w.allRecords))
	copy(out, w.allRecords)
	return out
}

// Closed tells whether Close was called
func (w *Fake) Closed() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.closed
}

// Written returns a channel that receives a signal after new records were written
func (w *Fake) Written() <-chan struct{} {
	return w.notify
}

// NewWriteFake creates a new write.
func NewWriteFake() *Fake {
	log.Debugf("entering NewWriteFake")
	return &Fake{notify: make(chan struct{}, 1)}
}
