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

package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ConvertToFloat64 converts an unknown type to float64
func ConvertToFloat64(unk interface{}) (float64, error) {
	switch i := unk.(type) {
	case float64:
		return i, nil
	case float32:
		return float64(i), nil
	case int64:
		return float64(i), nil
	case int32:
		return float64(i), nil
	case int:
		return float64(i), nil
	case uint64:
		return float64(i), nil
	case uint32:
		return float64(i), nil
	case uint:
		return float64(i), nil
	case time.Duration:
		return float64(i), nil
	case json.Number:
		return i.Float64()
	case string:
		return strconv.ParseFloat(i, 64)
	case []byte:
		return strconv.ParseFloat(string(i), 64)
	case nil:
		return math.NaN(), fmt.Errorf("can't convert nil to float64")
	default:
		return math.NaN(), fmt.Errorf("can't convert %v (%T) to float64", unk, unk)
	}
}

// ConvertToInt64 converts an unknown type to int64
func ConvertToInt64(unk interface{}) (int64, error) {
	switch i := unk.(type) {
	case string:
		return strconv.ParseInt(i, 10, 64)
	case json.Number:
		return i.Int64()
	default:
		f, err := ConvertToFloat64(unk)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	}
}

// ConvertToInt converts an unknown type to int
func ConvertToInt(unk interface{}) (int, error) {
	i, err := ConvertToInt64(unk)
	return int(i), err
}

// ConvertToString converts an unknown type to string
func ConvertToString(unk interface{}) string {
	switch i := unk.(type) {
	case string:
		return i
	case float64:
		return strconv.FormatFloat(i, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(i), 'f', -1, 32)
	case []byte:
		return string(i)
	case fmt.Stringer:
		return i.String()
	default:
		return fmt.Sprintf("%v", unk)
	}
}
