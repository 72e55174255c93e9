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

package config

import (
	"fmt"

	"github.com/robotpm/pm-pipeline/pkg/utils"
)

// GenericMap is the record type flowing between pipeline stages.
type GenericMap map[string]interface{}

// Copy returns a shallow copy of the map.
func (m GenericMap) Copy() GenericMap {
	result := make(GenericMap, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// LookupFloat returns the field as a float64. Missing or non-numeric fields are errors.
func (m GenericMap) LookupFloat(key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	f, err := utils.ConvertToFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return f, nil
}

// LookupString returns the field as a string, and false when it is missing.
func (m GenericMap) LookupString(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return utils.ConvertToString(v), true
}
