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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenericMap_Copy(t *testing.T) {
	m := GenericMap{"time_s": 1.5, "axis_1": 2.0}
	cp := m.Copy()
	cp["axis_1"] = 7.0
	cp["axis_2"] = 1.0
	require.Equal(t, GenericMap{"time_s": 1.5, "axis_1": 2.0}, m)
	require.Len(t, cp, 3)
}

func TestGenericMap_Lookup(t *testing.T) {
	m := GenericMap{"f": 1.5, "i": 3, "s": "2.5", "bad": "abc", "nan": math.NaN(), "name": "axis_1"}

	v, err := m.LookupFloat("f")
	require.NoError(t, err)
	require.Equal(t, 1.5, v)
	v, err = m.LookupFloat("i")
	require.NoError(t, err)
	require.Equal(t, 3.0, v)
	v, err = m.LookupFloat("s")
	require.NoError(t, err)
	require.Equal(t, 2.5, v)
	v, err = m.LookupFloat("nan")
	require.NoError(t, err)
	require.True(t, math.IsNaN(v))

	_, err = m.LookupFloat("bad")
	require.ErrorContains(t, err, `"bad"`)
	_, err = m.LookupFloat("missing")
	require.ErrorContains(t, err, "missing")

	s, ok := m.LookupString("name")
	require.True(t, ok)
	require.Equal(t, "axis_1", s)
	_, ok = m.LookupString("missing")
	require.False(t, ok)
}

func BenchmarkGenericMap_Copy(b *testing.B) {
	m := GenericMap{}
	for i := 0; i < 20; i++ {
		m[string(rune('a'+i))] = float64(i)
	}
	for i := 0; i < b.N; i++ {
		_ = m.Copy()
	}
}
