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

package api

type TransformNormalize struct {
	Layout `yaml:",inline" json:",inline"`

	ArtifactsDir string `yaml:"artifactsDir" json:"artifactsDir" doc:"directory holding scalers.json"`
	Method       string `yaml:"method,omitempty" json:"method,omitempty" enum:"NormalizeMethodEnum" doc:"normalization method (default: zscore):"`
}

type NormalizeMethodEnum struct {
	ZScore string `yaml:"zscore" json:"zscore" doc:"(x - mean) / std"`
	MinMax string `yaml:"minmax" json:"minmax" doc:"(x - min) / (max - min)"`
}

func NormalizeMethodName(operation string) string {
	return GetEnumName(NormalizeMethodEnum{}, operation)
}

type TransformResidual struct {
	Layout `yaml:",inline" json:",inline"`

	ArtifactsDir string `yaml:"artifactsDir" json:"artifactsDir" doc:"directory holding linreg_models.json"`
}

type ExtractEvents struct {
	Layout `yaml:",inline" json:",inline"`

	ArtifactsDir string   `yaml:"artifactsDir,omitempty" json:"artifactsDir,omitempty" doc:"directory holding thresholds.json"`
	MinC         *float64 `yaml:"minC,omitempty" json:"minC,omitempty" doc:"alert threshold, overrides the persisted value"`
	MaxC         *float64 `yaml:"maxC,omitempty" json:"maxC,omitempty" doc:"error threshold, overrides the persisted value"`
	T            *float64 `yaml:"t,omitempty" json:"t,omitempty" doc:"minimum event duration, overrides the persisted value"`
}
