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
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PostgresConnection holds the PostgreSQL connection settings.
type PostgresConnection struct {
	Host     string `yaml:"host,omitempty" json:"host,omitempty" doc:"database host; falls back to PGHOST then DB_HOST"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty" doc:"database port; falls back to PGPORT then DB_PORT, default 5432"`
	Database string `yaml:"database,omitempty" json:"database,omitempty" doc:"database name; falls back to PGDATABASE then DB_NAME"`
	User     string `yaml:"user,omitempty" json:"user,omitempty" doc:"user name; falls back to PGUSER then DB_USER"`
	Password string `yaml:"password,omitempty" json:"password,omitempty" doc:"password; falls back to PGPASSWORD then DB_PASSWORD"`
	SSLMode  string `yaml:"sslMode,omitempty" json:"sslMode,omitempty" doc:"libpq sslmode, default require"`
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// WithEnvDefaults fills unset fields from the libpq environment variables,
// then from the legacy DB_* ones.
func (c PostgresConnection) WithEnvDefaults() PostgresConnection {
	if c.Host == "" {
		c.Host = firstEnv("PGHOST", "DB_HOST")
	}
	if c.Port == 0 {
		if p, err := strconv.Atoi(firstEnv("PGPORT", "DB_PORT")); err == nil {
			c.Port = p
		} else {
			c.Port = 5432
		}
	}
	if c.Database == "" {
		c.Database = firstEnv("PGDATABASE", "DB_NAME")
	}
	if c.User == "" {
		c.User = firstEnv("PGUSER", "DB_USER")
	}
	if c.Password == "" {
		c.Password = firstEnv("PGPASSWORD", "DB_PASSWORD")
	}
	if c.SSLMode == "" {
		c.SSLMode = "require"
	}
	return c
}

// Configured reports whether enough is known to attempt a connection.
func (c PostgresConnection) Configured() bool {
	return c.Host != "" && c.Database != ""
}

// DSN returns the key/value connection string understood by lib/pq.
func (c PostgresConnection) DSN() string {
	parts := []string{
		kv("host", c.Host),
		kv("port", strconv.Itoa(c.Port)),
		kv("dbname", c.Database),
	}
	if c.User != "" {
		parts = append(parts, kv("user", c.User))
	}
	if c.Password != "" {
		parts = append(parts, kv("password", c.Password))
	}
	parts = append(parts, kv("sslmode", c.SSLMode))
	return strings.Join(parts, " ")
}

func kv(k, v string) string {
	if v == "" || strings.ContainsAny(v, ` '\`) {
		v = "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
	}
	return fmt.Sprintf("%s=%s", k, v)
}
