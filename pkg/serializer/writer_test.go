// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serializer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string            `json:"name" yaml:"name"`
	Count  int               `json:"count" yaml:"count"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

type rows struct{}

func (rows) TableHeader() []string { return []string{"name", "cpu"} }
func (rows) TableRows() [][]string {
	return [][]string{{"node-a", "2000m"}, {"node-bb", "500m"}}
}

func TestWriter_Serialize(t *testing.T) {
	data := sample{Name: "n1", Count: 2, Labels: map[string]string{"zone": "us"}}

	tests := []struct {
		name   string
		format Format
		want   []string
	}{
		{name: "json", format: FormatJSON, want: []string{`"name": "n1"`, `"count": 2`, `"zone": "us"`}},
		{name: "yaml", format: FormatYAML, want: []string{"name: n1", "count: 2", "zone: us"}},
		{name: "table", format: FormatTable, want: []string{"FIELD", "VALUE", "Name", "n1", "Labels.zone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(tt.format, &buf)
			require.NoError(t, w.Serialize(context.Background(), data))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestWriter_SerializeTabular(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), rows{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[0], "CPU")
	assert.True(t, strings.HasPrefix(lines[1], "----"))
	assert.True(t, strings.HasPrefix(lines[2], "node-a "))
	assert.Contains(t, lines[3], "500m")
}

func TestWriter_SerializeTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatTable, &buf).Serialize(context.Background(), struct{}{}))
	assert.Equal(t, "<empty>\n", buf.String())
}

func TestNewWriter_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	assert.Equal(t, FormatJSON, w.format)
}

func TestMarshal_UnsupportedFormat(t *testing.T) {
	_, err := Marshal(Format("xml"), sample{})
	assert.Error(t, err)
}

func TestFormat_IsUnknown(t *testing.T) {
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
	assert.False(t, FormatTable.IsUnknown())
	assert.True(t, Format("").IsUnknown())
	assert.True(t, Format("xml").IsUnknown())
}

func TestFormat_Extension(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.Extension())
	assert.Equal(t, "yaml", FormatYAML.Extension())
	assert.Equal(t, "txt", FormatTable.Extension())
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("empty path is stdout", func(t *testing.T) {
		w, ok := NewFileWriterOrStdout(FormatJSON, "  ").(*Writer)
		require.True(t, ok)
		assert.Equal(t, os.Stdout, w.output)
	})

	t.Run("configmap uri", func(t *testing.T) {
		w, ok := NewFileWriterOrStdout(FormatYAML, "cm://monitoring/nodes").(*ConfigMapWriter)
		require.True(t, ok)
		assert.Equal(t, "monitoring", w.namespace)
		assert.Equal(t, "nodes", w.name)
	})

	t.Run("invalid configmap uri falls back to stdout", func(t *testing.T) {
		_, ok := NewFileWriterOrStdout(FormatYAML, "cm://monitoring").(*Writer)
		assert.True(t, ok)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		s := NewFileWriterOrStdout(FormatJSON, path)
		require.NoError(t, s.Serialize(context.Background(), sample{Name: "n1"}))
		c, ok := s.(Closer)
		require.True(t, ok)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"name": "n1"`)
	})

	t.Run("uncreatable file falls back to stdout", func(t *testing.T) {
		w, ok := NewFileWriterOrStdout(FormatJSON, filepath.Join(t.TempDir(), "missing", "out.json")).(*Writer)
		require.True(t, ok)
		assert.Equal(t, os.Stdout, w.output)
	})
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "yaml", "table"}, SupportedFormats())
}
