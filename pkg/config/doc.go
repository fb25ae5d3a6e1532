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

// Package config loads the nodeview configuration.
//
// Values are resolved in this order, later wins: built-in defaults, the
// configuration file (local path, http(s) URL or cm://namespace/name),
// NODEVIEW_* environment variables and finally command line flags.
//
//	instanceTypeLabel: node.kubernetes.io/instance-type
//	links:
//	  console: https://{{ label "topology.kubernetes.io/region" }}.console.aws.amazon.com/ec2/home#InstanceDetails:instanceId={{ instanceID }}
//	  dashboard: ""            # disabled
//	metrics:
//	  backend: auto            # metrics-server | prometheus | auto | none
//	  prometheus:
//	    address: http://prometheus.monitoring:9090
//	timeouts:
//	  query: 30s
//	  inventory: 20s
//	  metrics: 5s
//	inventory:
//	  labelSelector: node-role.kubernetes.io/worker
//	  limit: 5000
package config
