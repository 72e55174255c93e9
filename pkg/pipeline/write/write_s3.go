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

package write

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	log "github.com/sirupsen/logrus"
)

var s3log = log.WithField("component", "write.S3")

const (
	objectFormatVersion = "1.0"
	defaultS3BatchSize  = 10
)

type s3Writer interface {
	putObject(bucket string, objectName string, object map[string]interface{}) error
}

type writeS3 struct {
	s3Params          api.WriteS3
	s3Writer          s3Writer
	clock             clock.Clock
	pendingEntries    []config.GenericMap
	mutex             sync.Mutex
	streamID          string
	intervalStartTime time.Time
	sequenceNumber    int64
	metrics           *metrics
}

// writeObject must be called with the mutex held
func (s *writeS3) writeObject() {
	nLogs := len(s.pendingEntries)
	if nLogs > s.s3Params.BatchSize {
		nLogs = s.s3Params.BatchSize
	}
	now := s.clock.Now().UTC()
	batch := s.pendingEntries[0:nLogs]
	object := s.GenerateStoreHeader(batch, s.intervalStartTime, now)
	objectName := fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/hour=%02d/stream-id=%s/%08d",
		s.s3Params.Account, now.Year(), now.Month(), now.Day(), now.Hour(), s.streamID, s.sequenceNumber)
	s3log.Debugf("writeObject: objectName = %s", objectName)
	s.pendingEntries = s.pendingEntries[nLogs:]
	s.intervalStartTime = now
	s.sequenceNumber++

	if err := s.s3Writer.putObject(s.s3Params.Bucket, objectName, object); err != nil {
		s3log.WithError(err).Errorf("can't write object %s", objectName)
		s.metrics.error("CannotPutObject")
		return
	}
	s.metrics.written.Add(float64(len(batch)))
}

// GenerateStoreHeader wraps a batch of records with the capture metadata
func (s *writeS3) GenerateStoreHeader(records []config.GenericMap, startTime time.Time, endTime time.Time) map[string]interface{} {
	augmentedObject := make(map[string]interface{})
	for key, value := range s.s3Params.ObjectHeaderParameters {
		augmentedObject[key] = value
	}
	augmentedObject["version"] = objectFormatVersion
	augmentedObject["capture_start_time"] = startTime.Format(time.RFC3339)
	augmentedObject["capture_end_time"] = endTime.Format(time.RFC3339)
	augmentedObject["number_of_records"] = len(records)
	augmentedObject["records"] = records
	augmentedObject["state"] = "ok"

	return augmentedObject
}

// Write buffers the record and uploads an object once a batch is complete
func (s *writeS3) Write(entry config.GenericMap) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pendingEntries = append(s.pendingEntries, entry)
	if len(s.pendingEntries) >= s.s3Params.BatchSize {
		s.writeObject()
	}
}

// Close uploads the last, possibly incomplete, batch
func (s *writeS3) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for len(s.pendingEntries) > 0 {
		s.writeObject()
	}
	return nil
}

// NewWriteS3 create a new writer to S3
func NewWriteS3(opMetrics *operational.Metrics, params config.StageParam) (Writer, error) {
	if params.Write == nil || params.Write.S3 == nil {
		return nil, errors.New("missing s3 write configuration")
	}
	client, err := connectS3(params.Write.S3)
	if err != nil {
		return nil, err
	}
	return newWriteS3(opMetrics, params, client, clock.New()), nil
}

func newWriteS3(opMetrics *operational.Metrics, params config.StageParam, writer s3Writer, clk clock.Clock) *writeS3 {
	configParams := *params.Write.S3
	s3log.Debugf("NewWriteS3, config = %v", configParams)
	if configParams.BatchSize <= 0 {
		configParams.BatchSize = defaultS3BatchSize
	}
	return &writeS3{
		s3Params:          configParams,
		s3Writer:          writer,
		clock:             clk,
		streamID:          uuid.NewString(),
		intervalStartTime: clk.Now().UTC(),
		metrics:           newMetrics(opMetrics, params.Name, api.S3Type),
	}
}

type minioWriter struct {
	client *minio.Client
}

func connectS3(cfg *api.WriteS3) (*minioWriter, error) {
	s3Client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create S3 client: %w", err)
	}

	found, err := s3Client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		s3log.WithError(err).Warnf("can't access S3 bucket %s", cfg.Bucket)
	} else if !found {
		return nil, fmt.Errorf("bucket %s not found", cfg.Bucket)
	}
	return &minioWriter{client: s3Client}, nil
}

func (m *minioWriter) putObject(bucket string, objectName string, object map[string]interface{}) error {
	b := new(bytes.Buffer)
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(b).Encode(object); err != nil {
		return fmt.Errorf("can't encode object: %w", err)
	}
	uploadInfo, err := m.client.PutObject(context.Background(), bucket, objectName, b, int64(b.Len()),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return err
	}
	s3log.Debugf("uploadInfo = %v", uploadInfo)
	return nil
}
