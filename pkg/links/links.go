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

package links

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

const (
	// RegionLabel is the well-known label carrying a node's cloud region.
	RegionLabel = "topology.kubernetes.io/region"

	// DefaultConsoleTemplate links to the EC2 console page of the instance.
	DefaultConsoleTemplate = `https://{{ label "topology.kubernetes.io/region" }}.console.aws.amazon.com/ec2/home?region={{ label "topology.kubernetes.io/region" }}#InstanceDetails:instanceId={{ instanceID }}`

	// DefaultDashboardTemplate links to the Datadog host dashboard of the instance.
	DefaultDashboardTemplate = `https://app.datadoghq.com/dash/host_name/{{ instanceID }}`
)

// ErrUnresolved is reported when a template refers to data the node lacks.
var ErrUnresolved = errors.New("link template parameter unresolved")

// Kind names a generated link.
type Kind string

const (
	KindConsole   Kind = "console"
	KindDashboard Kind = "dashboard"
)

// Links holds the generated URLs of one node. An empty string means the
// template could not be resolved for that node.
type Links struct {
	ConsolePageURL string
	DashboardURL   string
	// Failed lists the links that could not be resolved.
	Failed []Kind
}

// Data is the template input for one node.
type Data struct {
	Name       string
	ProviderID string
	// Provider is the scheme of the provider ID, e.g. "aws".
	Provider string
	// InstanceID is the last path segment of the provider ID.
	InstanceID string
	Labels     map[string]string
}

// Generator renders console and dashboard URLs from text/template sources.
// Besides the Data fields, templates can call:
//
//	label "key"          the node label value; fails when the label is absent
//	index .Labels "key"  same as label, for templates written with index
//	instanceID           the instance ID; fails when the provider ID has none
//
// A Generator is safe for concurrent use.
type Generator struct {
	console   *template.Template
	dashboard *template.Template
}

// NewGenerator parses both templates. An empty template disables that link.
func NewGenerator(consoleTmpl, dashboardTmpl string) (*Generator, error) {
	console, err := parse(KindConsole, consoleTmpl)
	if err != nil {
		return nil, err
	}
	dashboard, err := parse(KindDashboard, dashboardTmpl)
	if err != nil {
		return nil, err
	}
	return &Generator{console: console, dashboard: dashboard}, nil
}

// NewDefaultGenerator returns a Generator for the AWS console and Datadog links.
func NewDefaultGenerator() *Generator {
	g, err := NewGenerator(DefaultConsoleTemplate, DefaultDashboardTemplate)
	if err != nil {
		panic(fmt.Sprintf("invalid default link templates: %v", err))
	}
	return g
}

// parse registers placeholder funcs; the real ones are bound per node in render.
func parse(kind Kind, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	t, err := template.New(string(kind)).
		Option("missingkey=error").
		Funcs(funcsFor(Data{})).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s link template: %w", kind, err)
	}
	return t, nil
}

func funcsFor(d Data) template.FuncMap {
	return template.FuncMap{
		"label": func(key string) (string, error) {
			return lookup(d.Labels, key)
		},
		// index replaces the builtin so a missing key fails the link
		// instead of rendering an empty path segment.
		"index": lookup,
		"instanceID": func() (string, error) {
			if d.InstanceID == "" {
				return "", fmt.Errorf("%w: no instance ID in provider ID %q", ErrUnresolved, d.ProviderID)
			}
			return d.InstanceID, nil
		},
	}
}

func lookup(m map[string]string, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: label %q not set", ErrUnresolved, key)
	}
	return v, nil
}

// BuildLinks renders both links for a node. It never fails; a link whose
// template cannot be resolved is left empty and listed in Links.Failed.
func (g *Generator) BuildLinks(name, providerID string, labels map[string]string) Links {
	if g == nil {
		return Links{}
	}
	provider, instanceID := ParseProviderID(providerID)
	d := Data{
		Name:       name,
		ProviderID: providerID,
		Provider:   provider,
		InstanceID: instanceID,
		Labels:     labels,
	}

	var out Links
	var err error
	if out.ConsolePageURL, err = g.render(g.console, d); err != nil {
		out.Failed = append(out.Failed, KindConsole)
		slog.Debug("failed to resolve link", "node", name, "link", KindConsole, "error", err)
	}
	if out.DashboardURL, err = g.render(g.dashboard, d); err != nil {
		out.Failed = append(out.Failed, KindDashboard)
		slog.Debug("failed to resolve link", "node", name, "link", KindDashboard, "error", err)
	}
	return out
}

func (g *Generator) render(t *template.Template, d Data) (string, error) {
	if t == nil {
		return "", nil
	}

	bound, err := t.Clone()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnresolved, err)
	}

	var buf bytes.Buffer
	if err := bound.Funcs(funcsFor(d)).Execute(&buf, d); err != nil {
		if !errors.Is(err, ErrUnresolved) {
			err = fmt.Errorf("%w: %w", ErrUnresolved, err)
		}
		return "", err
	}
	return buf.String(), nil
}

// ParseProviderID splits a provider ID such as "aws:///us-west-2a/i-0abc"
// into its provider ("aws") and instance ID ("i-0abc"). Either part is empty
// when it cannot be derived.
func ParseProviderID(providerID string) (provider, instanceID string) {
	if providerID == "" {
		return "", ""
	}

	rest := providerID
	if i := strings.Index(providerID, "://"); i >= 0 {
		provider = strings.ToLower(providerID[:i])
		rest = providerID[i+3:]
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 && provider == "" {
		return "", ""
	}
	return provider, parts[len(parts)-1]
}
