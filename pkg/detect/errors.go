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

import "fmt"

// ShapeMismatchError reports time and deviation sequences of different lengths.
type ShapeMismatchError struct {
	Axis       string
	Times      int
	Deviations int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("axis %q: %d timestamps but %d deviations", e.Axis, e.Times, e.Deviations)
}

// ConfigurationError reports an invalid RuleConfig.
type ConfigurationError struct {
	Rules  RuleConfig
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid rule configuration %+v: %s", e.Rules, e.Reason)
}
