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

// Channel layout shared by every stage that reads readings. Empty values select
// the "time_s" time column and the axis_1 ... axis_8 channels.
type Layout struct {
	TimeColumn string   `yaml:"timeColumn,omitempty" json:"timeColumn,omitempty" doc:"name of the time field (default: time_s)"`
	Channels   []string `yaml:"channels,omitempty" json:"channels,omitempty" doc:"current-draw channels (default: axis_1 ... axis_8)"`
}

type IngestFile struct {
	Layout `yaml:",inline" json:",inline"`

	Filename string   `yaml:"filename" json:"filename" doc:"CSV file with a header row"`
	Interval Duration `yaml:"interval,omitempty" json:"interval,omitempty" doc:"pause between two readings; 0 replays the file as fast as possible"`
	Loop     bool     `yaml:"loop,omitempty" json:"loop,omitempty" doc:"replay the file forever (requires an interval)"`
}

type IngestSynthetic struct {
	Layout `yaml:",inline" json:",inline"`

	TrainingFile     string             `yaml:"trainingFile" json:"trainingFile" doc:"CSV file whose statistics shape the generated readings"`
	Rows             int                `yaml:"rows,omitempty" json:"rows,omitempty" doc:"number of readings to generate (default: 3000)"`
	Seed             int64              `yaml:"seed,omitempty" json:"seed,omitempty" doc:"random seed"`
	DefaultAnomalies bool               `yaml:"defaultAnomalies,omitempty" json:"defaultAnomalies,omitempty" doc:"inject the reference bumps on axis_2 and axis_5"`
	Anomalies        []SyntheticAnomaly `yaml:"anomalies,omitempty" json:"anomalies,omitempty" doc:"additional sustained bumps to inject"`
	Interval         Duration           `yaml:"interval,omitempty" json:"interval,omitempty" doc:"pause between two readings"`
}

type SyntheticAnomaly struct {
	Channel  string  `yaml:"channel" json:"channel" doc:"channel receiving the bump"`
	Start    float64 `yaml:"start" json:"start" doc:"first time of the bump"`
	Duration float64 `yaml:"duration" json:"duration" doc:"length of the bump, in time units"`
	Bump     float64 `yaml:"bump" json:"bump" doc:"value added to every sample of the bump"`
}

type IngestPostgres struct {
	Layout `yaml:",inline" json:",inline"`

	Connection PostgresConnection `yaml:"connection,omitempty" json:"connection,omitempty" doc:"database connection; unset fields come from the PG* and DB_* environment variables"`
	Table      string             `yaml:"table" json:"table" doc:"readings table, read in id order"`
	Limit      int                `yaml:"limit,omitempty" json:"limit,omitempty" doc:"maximum number of readings (default: all)"`
}

type IngestKafka struct {
	Layout `yaml:",inline" json:",inline"`

	Brokers     []string `yaml:"brokers" json:"brokers" doc:"list of kafka broker addresses"`
	Topic       string   `yaml:"topic" json:"topic" doc:"kafka topic to listen on"`
	GroupID     string   `yaml:"groupid" json:"groupid" doc:"separate groupid for each consumer on specified topic"`
	StartOffset string   `yaml:"startOffset,omitempty" json:"startOffset,omitempty" doc:"FirstOffset (least recent - default) or LastOffset (most recent) offset available for a partition"`
	MaxBytes    int      `yaml:"maxBytes,omitempty" json:"maxBytes,omitempty" doc:"maximum size of a fetch request"`
}
