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

package model

import "fmt"

// InsufficientDataError is returned when a fit has no samples to work with.
type InsufficientDataError struct {
	What string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.What)
}

// ShapeMismatchError is returned when paired inputs have different lengths.
type ShapeMismatchError struct {
	Left, Right int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %d values vs %d values", e.Left, e.Right)
}

// MissingChannelError is returned when a dataset channel has no fitted artifact.
type MissingChannelError struct {
	Channel string
	In      string
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("channel %q has no entry in %s", e.Channel, e.In)
}
