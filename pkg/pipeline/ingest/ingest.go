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

package ingest

import (
	"github.com/robotpm/pm-pipeline/pkg/config"
)

// Ingester produces readings records: the time column plus one numeric field per channel.
// Ingest returns when its input is exhausted or on exit; the pipeline then drains.
type Ingester interface {
	Ingest(out chan<- config.GenericMap)
}
