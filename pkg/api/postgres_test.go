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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresConnection(t *testing.T) {
	t.Setenv("PGHOST", "")
	t.Setenv("DB_HOST", "legacy-host")
	t.Setenv("PGPORT", "6543")
	t.Setenv("PGDATABASE", "robots")
	t.Setenv("DB_NAME", "ignored")
	t.Setenv("PGUSER", "pm")
	t.Setenv("PGPASSWORD", "it's secret")

	c := PostgresConnection{}.WithEnvDefaults()
	require.Equal(t, PostgresConnection{
		Host: "legacy-host", Port: 6543, Database: "robots", User: "pm", Password: "it's secret", SSLMode: "require",
	}, c)
	require.True(t, c.Configured())
	require.Equal(t, `host=legacy-host port=6543 dbname=robots user=pm password='it\'s secret' sslmode=require`, c.DSN())

	explicit := PostgresConnection{Host: "h", Port: 1, Database: "d", SSLMode: "disable"}.WithEnvDefaults()
	require.Equal(t, "h", explicit.Host)
	require.Equal(t, 1, explicit.Port)
	require.Equal(t, "disable", explicit.SSLMode)

	t.Setenv("PGPORT", "")
	t.Setenv("DB_PORT", "")
	require.Equal(t, 5432, PostgresConnection{}.WithEnvDefaults().Port)
	require.False(t, PostgresConnection{Host: "h"}.Configured())
}
