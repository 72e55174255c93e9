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

package api

const (
	FileType      = "file"
	FileLoopType  = "file_loop"
	SyntheticType = "synthetic"
	PostgresType  = "postgres"
	KafkaType     = "kafka"
	NormalizeType = "normalize"
	ResidualType  = "residual"
	EventsType    = "events"
	StdoutType    = "stdout"
	CSVType       = "csv"
	LokiType      = "loki"
	S3Type        = "s3"
	NoneType      = "none"

	TagYaml = "yaml"
	TagDoc  = "doc"
	TagEnum = "enum"
)

// Note: items beginning with doc: "## title" are top level items that get divided into sections inside api.md.

type API struct {
	IngestFile         IngestFile         `yaml:"file" doc:"## Ingest file API\nFollowing is the supported API format for CSV file ingestion:\n"`
	IngestSynthetic    IngestSynthetic    `yaml:"synthetic" doc:"## Ingest synthetic API\nFollowing is the supported API format for synthetic readings:\n"`
	IngestPostgres     IngestPostgres     `yaml:"postgres" doc:"## Ingest PostgreSQL API\nFollowing is the supported API format for reading a readings table:\n"`
	IngestKafka        IngestKafka        `yaml:"kafka" doc:"## Ingest Kafka API\nFollowing is the supported API format for the kafka ingest:\n"`
	TransformNormalize TransformNormalize `yaml:"normalize" doc:"## Transform Normalize API\nFollowing is the supported API format for normalization with frozen scaler statistics:\n"`
	TransformResidual  TransformResidual  `yaml:"residual" doc:"## Transform Residual API\nFollowing is the supported API format for baseline residuals:\n"`
	ExtractEvents      ExtractEvents      `yaml:"events" doc:"## Extract Events API\nFollowing is the supported API format for ALERT/ERROR event detection:\n"`
	WriteStdout        WriteStdout        `yaml:"stdout" doc:"## Write Standard Output\nFollowing is the supported API format for writing to standard output:\n"`
	WriteCSV           WriteCSV           `yaml:"csv" doc:"## Write CSV\nFollowing is the supported API format for writing CSV files:\n"`
	WritePostgres      WritePostgres      `yaml:"postgres" doc:"## Write PostgreSQL\nFollowing is the supported API format for writing to PostgreSQL:\n"`
	WriteLoki          WriteLoki          `yaml:"loki" doc:"## Write Loki API\nFollowing is the supported API format for writing to loki:\n"`
	WriteKafka         WriteKafka         `yaml:"kafka" doc:"## Write Kafka API\nFollowing is the supported API format for writing to kafka:\n"`
	WriteS3            WriteS3            `yaml:"s3" doc:"## Write S3 API\nFollowing is the supported API format for writing event batches to an object store:\n"`
}
