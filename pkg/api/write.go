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

type WriteStdout struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" enum:"StdoutFormatEnum" doc:"the format of each line:"`
}

type StdoutFormatEnum struct {
	Printf string `yaml:"printf" json:"printf" doc:"sorted key=value pairs"`
	JSON   string `yaml:"json" json:"json" doc:"one JSON object per line"`
}

func StdoutFormatName(operation string) string {
	return GetEnumName(StdoutFormatEnum{}, operation)
}

type WriteCSV struct {
	Filename string   `yaml:"filename" json:"filename" doc:"output CSV file, truncated on start"`
	Columns  []string `yaml:"columns,omitempty" json:"columns,omitempty" doc:"columns to write (default: the event fields)"`
}

type WritePostgres struct {
	Layout `yaml:",inline" json:",inline"`

	Connection PostgresConnection `yaml:"connection,omitempty" json:"connection,omitempty" doc:"database connection; unset fields come from the PG* and DB_* environment variables"`
	Table      string             `yaml:"table" json:"table" doc:"destination table"`
	Records    string             `yaml:"records,omitempty" json:"records,omitempty" enum:"PostgresRecordsEnum" doc:"kind of records written (default: events):"`
	BatchSize  int                `yaml:"batchSize,omitempty" json:"batchSize,omitempty" doc:"records buffered before an insert (default: 100)"`
	Ensure     bool               `yaml:"ensure,omitempty" json:"ensure,omitempty" doc:"create the table when missing"`
}

type PostgresRecordsEnum struct {
	Events   string `yaml:"events" json:"events" doc:"ALERT/ERROR events"`
	Readings string `yaml:"readings" json:"readings" doc:"raw readings"`
}

func PostgresRecordsName(operation string) string {
	return GetEnumName(PostgresRecordsEnum{}, operation)
}
