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

package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"
)

func TestEntry_Validate(t *testing.T) {
	assert.NoError(t, Entry{Name: "n1"}.Validate())

	err := Entry{ProviderID: "aws:///i-1"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedEntry))
}

func TestStaticSource_ListNodes(t *testing.T) {
	src := NewStaticSource(
		Entry{Name: "n2", Labels: map[string]string{"zone": "eu"}},
		Entry{Name: "n1", Labels: map[string]string{"zone": "us"}},
		Entry{Name: "n3"},
	)

	t.Run("all in order", func(t *testing.T) {
		entries, err := src.ListNodes(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "n2", entries[0].Name)
		assert.Equal(t, "n1", entries[1].Name)
		assert.Equal(t, "n3", entries[2].Name)
	})

	t.Run("selector filters", func(t *testing.T) {
		sel, err := labels.Parse("zone=us")
		require.NoError(t, err)
		entries, err := src.ListNodes(context.Background(), sel)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "n1", entries[0].Name)
	})

	t.Run("configured error", func(t *testing.T) {
		failing := &StaticSource{Err: errors.New("boom")}
		_, err := failing.ListNodes(context.Background(), nil)
		assert.EqualError(t, err, "boom")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.ListNodes(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadFile(t *testing.T) {
	content := `nodes:
  - name: n1
    providerID: aws:///us-west-2a/i-0abc
    labels:
      zone: us
    capacity:
      cpu: 2000
      memory: 4096
  - name: n2
`
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, src.Entries, 2)
	assert.Equal(t, "n1", src.Entries[0].Name)
	assert.Equal(t, int64(2000), src.Entries[0].Capacity.CPUMilli)
	assert.Equal(t, int64(4096), src.Entries[0].Capacity.MemoryBytes)
	assert.Equal(t, "us", src.Entries[0].Labels["zone"])
	assert.Equal(t, "n2", src.Entries[1].Name)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
