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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Query timeouts
		{"QueryTimeout", QueryTimeout, 10 * time.Second, 60 * time.Second},
		{"InventoryTimeout", InventoryTimeout, 5 * time.Second, 60 * time.Second},
		{"MetricsTimeout", MetricsTimeout, 1 * time.Second, 15 * time.Second},

		// Handler timeouts
		{"NodesHandlerTimeout", NodesHandlerTimeout, 10 * time.Second, 60 * time.Second},
		{"ContextHandlerTimeout", ContextHandlerTimeout, 1 * time.Second, 15 * time.Second},
		{"ReadinessCheckTimeout", ReadinessCheckTimeout, 1 * time.Second, 10 * time.Second},

		// Server timeouts
		{"ServerReadTimeout", ServerReadTimeout, 5 * time.Second, 30 * time.Second},
		{"ServerWriteTimeout", ServerWriteTimeout, 15 * time.Second, 60 * time.Second},
		{"ServerIdleTimeout", ServerIdleTimeout, 30 * time.Second, 300 * time.Second},
		{"ServerShutdownTimeout", ServerShutdownTimeout, 10 * time.Second, 60 * time.Second},

		// HTTP client timeouts
		{"HTTPClientTimeout", HTTPClientTimeout, 10 * time.Second, 60 * time.Second},
		{"HTTPConnectTimeout", HTTPConnectTimeout, 1 * time.Second, 15 * time.Second},

		// Output timeouts
		{"ConfigMapWriteTimeout", ConfigMapWriteTimeout, 10 * time.Second, 60 * time.Second},
		{"OCIPushTimeout", OCIPushTimeout, 30 * time.Second, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) is above maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestQueryTimeoutRelationships(t *testing.T) {
	// A slow metrics backend must expire before the query does
	if MetricsTimeout >= QueryTimeout {
		t.Errorf("MetricsTimeout (%v) should be less than QueryTimeout (%v)",
			MetricsTimeout, QueryTimeout)
	}

	if InventoryTimeout >= QueryTimeout {
		t.Errorf("InventoryTimeout (%v) should be less than QueryTimeout (%v)",
			InventoryTimeout, QueryTimeout)
	}

	// The handler leaves room to encode the response after the query
	if QueryTimeout >= NodesHandlerTimeout {
		t.Errorf("QueryTimeout (%v) should be less than NodesHandlerTimeout (%v)",
			QueryTimeout, NodesHandlerTimeout)
	}

	if NodesHandlerTimeout >= ServerWriteTimeout {
		t.Errorf("NodesHandlerTimeout (%v) should be less than ServerWriteTimeout (%v)",
			NodesHandlerTimeout, ServerWriteTimeout)
	}
}

func TestServerTimeoutRelationships(t *testing.T) {
	// Read timeout should be shorter than write timeout
	if ServerReadTimeout > ServerWriteTimeout {
		t.Errorf("ServerReadTimeout (%v) should not exceed ServerWriteTimeout (%v)",
			ServerReadTimeout, ServerWriteTimeout)
	}

	// Idle timeout should be longer than write timeout
	if ServerIdleTimeout < ServerWriteTimeout {
		t.Errorf("ServerIdleTimeout (%v) should be at least ServerWriteTimeout (%v)",
			ServerIdleTimeout, ServerWriteTimeout)
	}
}

func TestHTTPClientTimeoutRelationships(t *testing.T) {
	// Connect timeout should be less than total timeout
	if HTTPConnectTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPConnectTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPConnectTimeout, HTTPClientTimeout)
	}

	// TLS handshake timeout should be less than total timeout
	if HTTPTLSHandshakeTimeout >= HTTPClientTimeout {
		t.Errorf("HTTPTLSHandshakeTimeout (%v) should be less than HTTPClientTimeout (%v)",
			HTTPTLSHandshakeTimeout, HTTPClientTimeout)
	}
}

func TestNodeListLimits(t *testing.T) {
	if NodeListPageSize <= 0 || NodeListPageSize > NodeListAbsoluteMax {
		t.Errorf("NodeListPageSize (%d) should be in (0, %d]", NodeListPageSize, NodeListAbsoluteMax)
	}
}
