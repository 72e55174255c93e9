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

package prometheus

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robotpm/pm-pipeline/pkg/config"
	"github.com/sirupsen/logrus"
)

const defaultPort = 9090

var plog = logrus.WithField("component", "prometheus")

// InitializePrometheus starts the server exposing the operational metrics on /metrics.
// The returned server must be shut down by the caller.
func InitializePrometheus(settings *config.MetricsSettings) *http.Server {
	if settings.SuppressGoMetrics {
		prometheus.Unregister(collectors.NewGoCollector())
		prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	port := settings.Port
	if port == 0 {
		port = defaultPort
	}
	mux := http.NewServeMux()
	// The Handler function provides a default handler to expose metrics
	// via an HTTP server. "/metrics" is the usual endpoint for that.
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		// if value of address is empty, then by default it will take 0.0.0.0
		Addr:    fmt.Sprintf("%s:%v", settings.Address, port),
		Handler: mux,
	}
	plog.Infof("Prometheus server: addr = %s", server.Addr)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			plog.Errorf("error in http.ListenAndServe: %v", err)
			if !settings.NoPanic {
				os.Exit(1)
			}
		}
	}()
	return server
}
