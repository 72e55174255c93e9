/*
 * Copyright (C) 2021 IBM, Inc.
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
	"bytes"
	"encoding/json"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/sirupsen/logrus"
)

type Options struct {
	PipeLine        string
	Parameters      string
	MetricsSettings string
	Health          Health
	Profile         Profile
}

type Health struct {
	Address string
	Port    string
}

type Profile struct {
	Port int
}

// ConfigFileStruct is the whole pipeline configuration, as read from a file
// or assembled with PipelineBuilderStage.
type ConfigFileStruct struct {
	LogLevel        string          `yaml:"log-level,omitempty" json:"log-level,omitempty"`
	MetricsSettings MetricsSettings `yaml:"metricsSettings,omitempty" json:"metricsSettings,omitempty"`
	Pipeline        []Stage         `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	Parameters      []StageParam    `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

type PromConnectionInfo struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty" doc:"endpoint address to expose"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty" doc:"endpoint port number to expose (default: 9090)"`
}

type MetricsSettings struct {
	PromConnectionInfo `yaml:",inline" json:",inline"`

	Prefix            string `yaml:"prefix,omitempty" json:"prefix,omitempty" doc:"prefix for names of the operational metrics"`
	NoPanic           bool   `yaml:"noPanic,omitempty" json:"noPanic,omitempty"`
	SuppressGoMetrics bool   `yaml:"suppressGoMetrics,omitempty" json:"suppressGoMetrics,omitempty" doc:"filter out Go and process metrics"`
}

type Stage struct {
	Name    string `yaml:"name" json:"name"`
	Follows string `yaml:"follows,omitempty" json:"follows,omitempty"`
}

type StageParam struct {
	Name      string     `yaml:"name" json:"name"`
	Ingest    *Ingest    `yaml:"ingest,omitempty" json:"ingest,omitempty"`
	Transform *Transform `yaml:"transform,omitempty" json:"transform,omitempty"`
	Extract   *Extract   `yaml:"extract,omitempty" json:"extract,omitempty"`
	Write     *Write     `yaml:"write,omitempty" json:"write,omitempty"`
}

type Ingest struct {
	Type      string               `yaml:"type" json:"type"`
	File      *api.IngestFile      `yaml:"file,omitempty" json:"file,omitempty"`
	Synthetic *api.IngestSynthetic `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`
	Postgres  *api.IngestPostgres  `yaml:"postgres,omitempty" json:"postgres,omitempty"`
	Kafka     *api.IngestKafka     `yaml:"kafka,omitempty" json:"kafka,omitempty"`
}

type Transform struct {
	Type      string                  `yaml:"type" json:"type"`
	Normalize *api.TransformNormalize `yaml:"normalize,omitempty" json:"normalize,omitempty"`
	Residual  *api.TransformResidual  `yaml:"residual,omitempty" json:"residual,omitempty"`
}

type Extract struct {
	Type   string             `yaml:"type" json:"type"`
	Events *api.ExtractEvents `yaml:"events,omitempty" json:"events,omitempty"`
}

type Write struct {
	Type     string             `yaml:"type" json:"type"`
	Stdout   *api.WriteStdout   `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	CSV      *api.WriteCSV      `yaml:"csv,omitempty" json:"csv,omitempty"`
	Postgres *api.WritePostgres `yaml:"postgres,omitempty" json:"postgres,omitempty"`
	Loki     *api.WriteLoki     `yaml:"loki,omitempty" json:"loki,omitempty"`
	Kafka    *api.WriteKafka    `yaml:"kafka,omitempty" json:"kafka,omitempty"`
	S3       *api.WriteS3       `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// ParseConfig creates the internal unmarshalled representation from the Pipeline and Parameters json
func ParseConfig(opts *Options) (ConfigFileStruct, error) {
	out := ConfigFileStruct{}

	logrus.Debugf("opts.PipeLine = %v ", opts.PipeLine)
	err := JsonUnmarshalStrict([]byte(opts.PipeLine), &out.Pipeline)
	if err != nil {
		logrus.Errorf("error when parsing pipeline: %v", err)
		return out, err
	}
	logrus.Debugf("stages = %v ", out.Pipeline)

	err = JsonUnmarshalStrict([]byte(opts.Parameters), &out.Parameters)
	if err != nil {
		logrus.Errorf("error when parsing pipeline parameters: %v", err)
		return out, err
	}
	logrus.Debugf("params = %v ", out.Parameters)

	if opts.MetricsSettings != "" {
		err = JsonUnmarshalStrict([]byte(opts.MetricsSettings), &out.MetricsSettings)
		if err != nil {
			logrus.Errorf("error when parsing global metrics settings: %v", err)
			return out, err
		}
		logrus.Debugf("metrics settings = %v ", out.MetricsSettings)
	} else {
		logrus.Infof("using default metrics settings")
	}

	return out, nil
}

// JsonUnmarshalStrict is like Unmarshal except that any fields that are found
// in the data that do not have corresponding struct members, or mapping
// keys that are duplicates, will result in an error.
//
//nolint:revive,stylecheck
func JsonUnmarshalStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
