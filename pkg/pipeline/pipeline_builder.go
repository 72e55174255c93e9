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

package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/netobserv/gopipes/pkg/node"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/extract"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/ingest"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/transform"
	"github.com/robotpm/pm-pipeline/pkg/pipeline/write"
	log "github.com/sirupsen/logrus"
)

const defaultNodeBufferLen = 1000

// Error wraps any error caused by a wrong formation of the pipeline
type Error struct {
	StageName string
	wrapped   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline stage %q: %s", e.StageName, e.wrapped.Error())
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// builder stores the information that is only required during the build of the pipeline
type builder struct {
	pipelineStages   []*pipelineEntry
	configStages     []config.Stage
	configParams     []config.StageParam
	pipelineEntryMap map[string]*pipelineEntry
	createdStages    map[string]interface{}
	startNodes       []*node.Start[config.GenericMap]
	terminalNodes    []*node.Terminal[config.GenericMap]
	opMetrics        *operational.Metrics
}

type pipelineEntry struct {
	stageName   string
	stageType   string
	Ingester    ingest.Ingester
	Transformer transform.Transformer
	Extractor   extract.Extractor
	Writer      write.Writer
}

func newBuilder(cfg *config.ConfigFileStruct) *builder {
	return &builder{
		pipelineEntryMap: map[string]*pipelineEntry{},
		createdStages:    map[string]interface{}{},
		configStages:     cfg.Pipeline,
		configParams:     cfg.Parameters,
		opMetrics:        operational.NewMetrics(&cfg.MetricsSettings),
	}
}

// read the configuration stages definition and instantiate the corresponding native Go objects
func (b *builder) readStages() error {
	for _, param := range b.configParams {
		log.Debugf("stage = %v", param.Name)
		pEntry := pipelineEntry{
			stageName: param.Name,
			stageType: findStageType(&param),
		}
		var err error
		switch pEntry.stageType {
		case StageIngest:
			pEntry.Ingester, err = getIngester(b.opMetrics, param)
		case StageTransform:
			pEntry.Transformer, err = getTransformer(b.opMetrics, param)
		case StageExtract:
			pEntry.Extractor, err = getExtractor(b.opMetrics, param)
		case StageWrite:
			pEntry.Writer, err = getWriter(b.opMetrics, param)
		default:
			err = fmt.Errorf("invalid stage type: %v", pEntry.stageType)
		}
		if err != nil {
			return &Error{StageName: param.Name, wrapped: err}
		}
		b.pipelineEntryMap[param.Name] = &pEntry
		b.pipelineStages = append(b.pipelineStages, &pEntry)
	}
	log.Debugf("pipeline = %v", b.pipelineStages)
	return nil
}

// reads the configured Go stages and connects between them
// readStages must be invoked before this
func (b *builder) build() (*Pipeline, error) {
	// accounts start and middle nodes that are connected to another node
	sendingNodes := map[string]struct{}{}
	// accounts middle or terminal nodes that receive data from another node
	receivingNodes := map[string]struct{}{}
	for _, connection := range b.configStages {
		if connection.Name == "" || connection.Follows == "" {
			// ignore entries that do not represent a connection
			continue
		}
		// instantiates (or loads from cache) the destination node of a connection
		dstEntry, ok := b.pipelineEntryMap[connection.Name]
		if !ok {
			return nil, fmt.Errorf("unknown pipeline stage: %s", connection.Name)
		}
		dstNode, err := b.getStageNode(dstEntry, connection.Name)
		if err != nil {
			return nil, err
		}
		dst, ok := dstNode.(node.Receiver[config.GenericMap])
		if !ok {
			return nil, &Error{
				StageName: connection.Name,
				wrapped:   fmt.Errorf("stage of type %q can't receive data", dstEntry.stageType),
			}
		}
		// instantiates (or loads from cache) the source node of a connection
		srcEntry, ok := b.pipelineEntryMap[connection.Follows]
		if !ok {
			return nil, fmt.Errorf("unknown pipeline stage: %s", connection.Follows)
		}
		srcNode, err := b.getStageNode(srcEntry, connection.Follows)
		if err != nil {
			return nil, err
		}
		src, ok := srcNode.(node.Sender[config.GenericMap])
		if !ok {
			return nil, &Error{
				StageName: connection.Follows,
				wrapped:   fmt.Errorf("stage of type %q can't send data", srcEntry.stageType),
			}
		}
		log.Infof("connecting stages: %s --> %s", connection.Follows, connection.Name)

		sendingNodes[connection.Follows] = struct{}{}
		receivingNodes[connection.Name] = struct{}{}
		src.SendsTo(dst)
	}

	if err := b.verifyConnections(sendingNodes, receivingNodes); err != nil {
		return nil, err
	}
	if len(b.startNodes) == 0 {
		return nil, errors.New("no ingesters have been defined")
	}
	if len(b.terminalNodes) == 0 {
		return nil, errors.New("no writers have been defined")
	}
	return &Pipeline{
		startNodes:       b.startNodes,
		terminalNodes:    b.terminalNodes,
		pipelineStages:   b.pipelineStages,
		pipelineEntryMap: b.pipelineEntryMap,
		Metrics:          b.opMetrics,
	}, nil
}

// verifies that all the start and middle nodes send data to another node
// verifies that all the middle and terminal nodes receive data from another node
func (b *builder) verifyConnections(sendingNodes, receivingNodes map[string]struct{}) error {
	for _, stg := range b.pipelineStages {
		if isReceptor(stg) {
			if _, ok := receivingNodes[stg.stageName]; !ok {
				return &Error{
					StageName: stg.stageName,
					wrapped: fmt.Errorf("pipeline stage from type %q"+
						" should receive data from at least another stage", stg.stageType),
				}
			}
		}
		if isSender(stg) {
			if _, ok := sendingNodes[stg.stageName]; !ok {
				return &Error{
					StageName: stg.stageName,
					wrapped: fmt.Errorf("pipeline stage from type %q"+
						" should send data to at least another stage", stg.stageType),
				}
			}
		}
	}
	return nil
}

func isReceptor(p *pipelineEntry) bool {
	return p.stageType != StageIngest
}

func isSender(p *pipelineEntry) bool {
	return p.stageType != StageWrite
}

func (b *builder) getStageNode(pe *pipelineEntry, stageID string) (interface{}, error) {
	if stg, ok := b.createdStages[stageID]; ok {
		return stg, nil
	}
	durations := b.opMetrics.GetOrCreateStageDurationHisto().WithLabelValues(stageID)
	processed := b.opMetrics.RecordsProcessed(stageID)
	var stage interface{}
	switch pe.stageType {
	case StageIngest:
		start := node.AsStart(pe.Ingester.Ingest)
		b.startNodes = append(b.startNodes, start)
		stage = start
	case StageWrite:
		term := node.AsTerminal(func(in <-chan config.GenericMap) {
			b.opMetrics.CreateInQueueSizeGauge(stageID, func() int { return len(in) })
			for i := range in {
				timer := operational.NewTimer(durations)
				timer.Start()
				pe.Writer.Write(i)
				timer.ObserveMilliseconds()
				processed.Inc()
			}
			if closer, ok := pe.Writer.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					log.WithError(err).WithField("stage", stageID).Error("can't close writer")
				}
			}
		}, node.ChannelBufferLen(defaultNodeBufferLen))
		b.terminalNodes = append(b.terminalNodes, term)
		stage = term
	case StageTransform:
		stage = node.AsMiddle(func(in <-chan config.GenericMap, out chan<- config.GenericMap) {
			b.opMetrics.CreateInQueueSizeGauge(stageID, func() int { return len(in) })
			b.opMetrics.CreateOutQueueSizeGauge(stageID, func() int { return len(out) })
			for i := range in {
				timer := operational.NewTimer(durations)
				timer.Start()
				transformed, ok := pe.Transformer.Transform(i)
				timer.ObserveMilliseconds()
				processed.Inc()
				if ok {
					out <- transformed
				}
			}
		}, node.ChannelBufferLen(defaultNodeBufferLen))
	case StageExtract:
		stage = node.AsMiddle(func(in <-chan config.GenericMap, out chan<- config.GenericMap) {
			b.opMetrics.CreateInQueueSizeGauge(stageID, func() int { return len(in) })
			b.opMetrics.CreateOutQueueSizeGauge(stageID, func() int { return len(out) })
			for i := range in {
				timer := operational.NewTimer(durations)
				timer.Start()
				extracted := pe.Extractor.Extract([]config.GenericMap{i})
				timer.ObserveMilliseconds()
				processed.Inc()
				for _, e := range extracted {
					out <- e
				}
			}
			// the input is exhausted: close the runs that are still open
			if flusher, ok := pe.Extractor.(extract.Flusher); ok {
				for _, e := range flusher.Flush() {
					out <- e
				}
			}
		}, node.ChannelBufferLen(defaultNodeBufferLen))
	default:
		return nil, &Error{
			StageName: stageID,
			wrapped:   fmt.Errorf("invalid stage type: %s", pe.stageType),
		}
	}
	b.createdStages[stageID] = stage
	return stage, nil
}

func getIngester(opMetrics *operational.Metrics, params config.StageParam) (ingest.Ingester, error) {
	var ingester ingest.Ingester
	var err error
	switch params.Ingest.Type {
	case api.FileType, api.FileLoopType:
		ingester, err = ingest.NewIngestFile(opMetrics, params)
	case api.SyntheticType:
		ingester, err = ingest.NewIngestSynthetic(opMetrics, params)
	case api.PostgresType:
		ingester, err = ingest.NewIngestPostgres(opMetrics, params)
	case api.KafkaType:
		ingester, err = ingest.NewIngestKafka(opMetrics, params)
	default:
		err = fmt.Errorf("`ingest` type %s not defined", params.Ingest.Type)
	}
	return ingester, err
}

func getWriter(opMetrics *operational.Metrics, params config.StageParam) (write.Writer, error) {
	var writer write.Writer
	var err error
	switch params.Write.Type {
	case api.StdoutType:
		writer, err = write.NewWriteStdout(opMetrics, params)
	case api.CSVType:
		writer, err = write.NewWriteCSV(opMetrics, params)
	case api.PostgresType:
		writer, err = write.NewWritePostgres(opMetrics, params)
	case api.LokiType:
		writer, err = write.NewWriteLoki(opMetrics, params)
	case api.KafkaType:
		writer, err = write.NewWriteKafka(opMetrics, params)
	case api.S3Type:
		writer, err = write.NewWriteS3(opMetrics, params)
	case api.NoneType:
		writer, err = write.NewWriteNone()
	default:
		err = fmt.Errorf("`write` type %s not defined; if no writer needed, specify `none`", params.Write.Type)
	}
	return writer, err
}

func getTransformer(opMetrics *operational.Metrics, params config.StageParam) (transform.Transformer, error) {
	var transformer transform.Transformer
	var err error
	switch params.Transform.Type {
	case api.NormalizeType:
		transformer, err = transform.NewTransformNormalize(params, opMetrics)
	case api.ResidualType:
		transformer, err = transform.NewTransformResidual(params, opMetrics)
	case api.NoneType:
		transformer, err = transform.NewTransformNone()
	default:
		err = fmt.Errorf("`transform` type %s not defined; if no transformer needed, specify `none`", params.Transform.Type)
	}
	return transformer, err
}

func getExtractor(opMetrics *operational.Metrics, params config.StageParam) (extract.Extractor, error) {
	var extractor extract.Extractor
	var err error
	switch params.Extract.Type {
	case api.NoneType:
		extractor, err = extract.NewExtractNone()
	case api.EventsType:
		extractor, err = extract.NewExtractEvents(opMetrics, params)
	default:
		err = fmt.Errorf("`extract` type %s not defined; if no extractor needed, specify `none`", params.Extract.Type)
	}
	return extractor, err
}

// findStageType identifies the stage type from the parameters section that is set
func findStageType(param *config.StageParam) string {
	log.Debugf("findStageType: stage = %v", param.Name)
	if param.Ingest != nil && param.Ingest.Type != "" {
		return StageIngest
	}
	if param.Transform != nil && param.Transform.Type != "" {
		return StageTransform
	}
	if param.Extract != nil && param.Extract.Type != "" {
		return StageExtract
	}
	if param.Write != nil && param.Write.Type != "" {
		return StageWrite
	}
	return "unknown"
}
