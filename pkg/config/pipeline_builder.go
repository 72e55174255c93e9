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

	"github.com/robotpm/pm-pipeline/pkg/api"
)

// PipelineBuilderStage holds information about a given stage of the pipeline.
// Every method adds a stage following this one, so calling several of them on
// the same receiver forks the pipeline.
type PipelineBuilderStage struct {
	lastStage string
	pipeline  *pipeline
}

type pipeline struct {
	stages []Stage
	config []StageParam
}

// NewPipeline creates a new pipeline from an existing ingest stage definition.
func NewPipeline(name string, ingest *Ingest) (PipelineBuilderStage, error) {
	if ingest.File != nil {
		return NewFilePipeline(name, *ingest.File), nil
	}
	if ingest.Synthetic != nil {
		return NewSyntheticPipeline(name, *ingest.Synthetic), nil
	}
	if ingest.Postgres != nil {
		return NewPostgresPipeline(name, *ingest.Postgres), nil
	}
	if ingest.Kafka != nil {
		return NewKafkaPipeline(name, *ingest.Kafka), nil
	}
	return PipelineBuilderStage{}, fmt.Errorf("unknown ingest type %q", ingest.Type)
}

// NewFilePipeline creates a new pipeline builder replaying a CSV file.
func NewFilePipeline(name string, ingest api.IngestFile) PipelineBuilderStage {
	return newPipeline(name, &Ingest{Type: api.FileType, File: &ingest})
}

// NewSyntheticPipeline creates a new pipeline builder generating synthetic readings.
func NewSyntheticPipeline(name string, ingest api.IngestSynthetic) PipelineBuilderStage {
	return newPipeline(name, &Ingest{Type: api.SyntheticType, Synthetic: &ingest})
}

// NewPostgresPipeline creates a new pipeline builder reading a readings table.
func NewPostgresPipeline(name string, ingest api.IngestPostgres) PipelineBuilderStage {
	return newPipeline(name, &Ingest{Type: api.PostgresType, Postgres: &ingest})
}

// NewKafkaPipeline creates a new pipeline builder consuming a Kafka topic.
func NewKafkaPipeline(name string, ingest api.IngestKafka) PipelineBuilderStage {
	return newPipeline(name, &Ingest{Type: api.KafkaType, Kafka: &ingest})
}

func newPipeline(name string, ingest *Ingest) PipelineBuilderStage {
	p := pipeline{
		stages: []Stage{{Name: name}},
		config: []StageParam{{Name: name, Ingest: ingest}},
	}
	return PipelineBuilderStage{pipeline: &p, lastStage: name}
}

func (b *PipelineBuilderStage) next(name string, param StageParam) PipelineBuilderStage {
	b.pipeline.stages = append(b.pipeline.stages, Stage{Name: name, Follows: b.lastStage})
	b.pipeline.config = append(b.pipeline.config, param)
	return PipelineBuilderStage{pipeline: b.pipeline, lastStage: name}
}

// TransformNormalize chains the current stage with a normalize stage and returns that new stage
func (b *PipelineBuilderStage) TransformNormalize(name string, normalize api.TransformNormalize) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Transform: &Transform{Type: api.NormalizeType, Normalize: &normalize}})
}

// TransformResidual chains the current stage with a residual stage and returns that new stage
func (b *PipelineBuilderStage) TransformResidual(name string, residual api.TransformResidual) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Transform: &Transform{Type: api.ResidualType, Residual: &residual}})
}

// ExtractEvents chains the current stage with an event detection stage and returns that new stage
func (b *PipelineBuilderStage) ExtractEvents(name string, events api.ExtractEvents) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Extract: &Extract{Type: api.EventsType, Events: &events}})
}

// WriteStdout chains the current stage with a WriteStdout stage and returns that new stage
func (b *PipelineBuilderStage) WriteStdout(name string, stdout api.WriteStdout) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Write: &Write{Type: api.StdoutType, Stdout: &stdout}})
}

// WriteCSV chains the current stage with a WriteCSV stage and returns that new stage
func (b *PipelineBuilderStage) WriteCSV(name string, csv api.WriteCSV) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Write: &Write{Type: api.CSVType, CSV: &csv}})
}

// WritePostgres chains the current stage with a WritePostgres stage and returns that new stage
func (b *PipelineBuilderStage) WritePostgres(name string, pg api.WritePostgres) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Write: &Write{Type: api.PostgresType, Postgres: &pg}})
}

// WriteLoki chains the current stage with a WriteLoki stage and returns that new stage
func (b *PipelineBuilderStage) WriteLoki(name string, loki api.WriteLoki) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Write: &Write{Type: api.LokiType, Loki: &loki}})
}

// WriteKafka chains the current stage with a WriteKafka stage and returns that new stage
func (b *PipelineBuilderStage) WriteKafka(name string, kafka api.WriteKafka) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Write: &Write{Type: api.KafkaType, Kafka: &kafka}})
}

// WriteS3 chains the current stage with a WriteS3 stage and returns that new stage
func (b *PipelineBuilderStage) WriteS3(name string, s3 api.WriteS3) PipelineBuilderStage {
	return b.next(name, StageParam{Name: name, Write: &Write{Type: api.S3Type, S3: &s3}})
}

// GetStages returns the current pipeline stages. It can be called from any of the stages, they share the same pipeline reference.
func (b *PipelineBuilderStage) GetStages() []Stage {
	return b.pipeline.stages
}

// GetStageParams returns the current pipeline stage params. It can be called from any of the stages, they share the same pipeline reference.
func (b *PipelineBuilderStage) GetStageParams() []StageParam {
	return b.pipeline.config
}

// IntoConfigFileStruct injects the current pipeline and params in the provided ConfigFileStruct object.
func (b *PipelineBuilderStage) IntoConfigFileStruct(cfs *ConfigFileStruct) *ConfigFileStruct {
	cfs.Pipeline = b.GetStages()
	cfs.Parameters = b.GetStageParams()
	return cfs
}
