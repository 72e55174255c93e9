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
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// InitConfig reads a YAML pipeline definition the same way the command line does:
// viper first, then the JSON representation of each section parsed strictly.
func InitConfig(t *testing.T, conf string) (*viper.Viper, *config.ConfigFileStruct) {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	yamlConfig := []byte(conf)
	v := viper.New()
	v.SetConfigType("yaml")
	r := bytes.NewReader(yamlConfig)
	err := v.ReadConfig(r)
	require.NoError(t, err)
	var b []byte

	pipelineStr := v.Get("pipeline")
	b, err = json.Marshal(&pipelineStr)
	require.NoError(t, err)
	opts := config.Options{PipeLine: string(b)}

	parametersStr := v.Get("parameters")
	b, err = json.Marshal(&parametersStr)
	require.NoError(t, err)
	opts.Parameters = string(b)

	if v.IsSet("metricsSettings") {
		metricsStr := v.Get("metricsSettings")
		b, err = json.Marshal(&metricsStr)
		require.NoError(t, err)
		opts.MetricsSettings = string(b)
	}

	out, err := config.ParseConfig(&opts)
	require.NoError(t, err)
	return v, &out
}

// CreateTempFile writes content to a new file of the test temporary directory.
func CreateTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ReadingsCSV renders readings as a CSV with a time_s column followed by the given channels.
func ReadingsCSV(channels []string, rows ...[]float64) string {
	var sb strings.Builder
	sb.WriteString("time_s," + strings.Join(channels, ",") + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		sb.WriteString(strings.Join(cells, ",") + "\n")
	}
	return sb.String()
}

func DeserializeJSONToMap(t *testing.T, in string) config.GenericMap {
	var m config.GenericMap
	err := jsoniter.Unmarshal([]byte(in), &m)
	require.NoError(t, err)
	return m
}
