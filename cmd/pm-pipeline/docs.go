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

package main

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/operational"
	"github.com/robotpm/pm-pipeline/pkg/pipeline"
	"github.com/spf13/cobra"
)

const metricsDocHeader = `
> Note: this file was automatically generated, to update execute "pm-pipeline docs metrics"

# pm-pipeline Operational Metrics

Each table below provides documentation for an exported pm-pipeline operational metric.

`

func newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Print the markdown documentation of the stage parameters or of the operational metrics",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "api",
		Short: "Document the stage parameters",
		Run: func(cmd *cobra.Command, _ []string) {
			output := new(bytes.Buffer)
			iterate(output, api.API{}, 0)
			fmt.Fprint(cmd.OutOrStdout(), output)
		},
	}, &cobra.Command{
		Use:   "metrics",
		Short: "Document the operational metrics",
		Run: func(cmd *cobra.Command, _ []string) {
			// Referencing the pipeline package registers the metric definitions of every stage.
			var _ *pipeline.Pipeline
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", metricsDocHeader, operational.GetDocumentation())
		},
	})
	return cmd
}

// iterate walks the yaml and doc tags of data and prints one line per documented field.
func iterate(output io.Writer, data interface{}, indent int) {
	newIndent := indent + 1
	d := reflect.ValueOf(data)
	switch d.Kind() {
	case reflect.Slice, reflect.Map:
		zeroElement := reflect.Zero(d.Type().Elem()).Interface()
		iterate(output, zeroElement, newIndent)
	case reflect.Struct:
		val := reflect.Indirect(d)
		for i := 0; i < d.NumField(); i++ {
			field := val.Type().Field(i)
			fieldName := strings.ReplaceAll(field.Tag.Get(api.TagYaml), ",omitempty", "")
			fieldDocTag := field.Tag.Get(api.TagDoc)
			fieldEnumTag := field.Tag.Get(api.TagEnum)

			if fieldEnumTag != "" {
				enumType := api.GetEnumReflectionTypeByFieldName(fieldEnumTag)
				fmt.Fprintf(output, "%s %s: (enum) %s\n", strings.Repeat(" ", 4*newIndent), fieldName, fieldDocTag)
				iterate(output, reflect.Zero(enumType).Interface(), newIndent)
				continue
			}
			switch {
			case fieldDocTag == "":
				// inline layouts carry no doc of their own but document their fields
				if field.Anonymous {
					iterate(output, d.Field(i).Interface(), indent)
				}
			case strings.HasPrefix(fieldDocTag, "#"):
				fmt.Fprintf(output, "\n%s\n", fieldDocTag)
				fmt.Fprintf(output, "<pre>")
				fmt.Fprintf(output, "\n%s %s:\n", strings.Repeat(" ", 4*indent), fieldName)
				iterate(output, d.Field(i).Interface(), newIndent)
				fmt.Fprintf(output, "</pre>")
			default:
				fmt.Fprintf(output, "%s %s: %s\n", strings.Repeat(" ", 4*newIndent), fieldName, fieldDocTag)
				iterate(output, d.Field(i).Interface(), newIndent)
			}
		}
	case reflect.Ptr:
		// the pointed struct is printed at the same level
		iterate(output, reflect.Zero(reflect.TypeOf(data).Elem()).Interface(), indent)
	}
}
