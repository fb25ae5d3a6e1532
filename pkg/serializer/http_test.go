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
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]any{"nodes": []string{"n1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"n1"}, body["nodes"])
}

func TestRespondJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, math.Inf(1))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestHttpReader_ReadWithContext(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, "payload")
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			fmt.Fprint(w, "late")
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	r := NewHttpReader(WithUserAgent("nodeview-test"))

	data, err := r.ReadWithContext(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "nodeview-test", gotUA)

	_, err = r.ReadWithContext(context.Background(), srv.URL+"/fail")
	assert.Error(t, err)

	_, err = r.ReadWithContext(context.Background(), "")
	assert.Error(t, err)

	short := NewHttpReader(WithTotalTimeout(20 * time.Millisecond))
	_, err = short.ReadWithContext(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestHttpReader_WithClient(t *testing.T) {
	c := &http.Client{}
	assert.Same(t, c, NewHttpReader(WithClient(c)).Client)
	assert.NotNil(t, NewHttpReader(WithClient(nil)).Client)
}

func TestNewHTTPTransport(t *testing.T) {
	assert.False(t, NewHTTPTransport(false).TLSClientConfig.InsecureSkipVerify)
	assert.True(t, NewHTTPTransport(true).TLSClientConfig.InsecureSkipVerify)
}
