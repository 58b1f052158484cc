// Copyright 2024 Wes Nick
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mailctl holds configuration loading, credentials handling and
// the advisory listing cache for the mailctl CLI.
package mailctl

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/go-jsonnet"
	multierror "github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/wesnick/mailctl/pkg/mailctl/engine"
)

// ErrNotFound is returned when a config file was not found.
var ErrNotFound = errors.New("config not found")

// Config is the desired state of a mailbox. The document's top-level
// key is "filters"; "rules" is accepted as an alias on read.
type Config struct {
	Version string            `yaml:"version,omitempty" json:"version,omitempty"`
	Filters []engine.RuleSpec `yaml:"filters" json:"filters"`
}

// ReadConfig reads and validates a desired-state document. YAML is the
// native format; .jsonnet files are evaluated first and the resulting
// JSON decoded through the same path, since YAML is a JSON superset.
//
// A document that parses to zero filters is rejected: a mistyped
// top-level key must never read as "delete everything" under
// --delete-missing.
func ReadConfig(p string) (Config, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, ErrNotFound
		}
		return Config{}, &engine.ConfigError{Path: p, Err: err}
	}
	if filepath.Ext(p) == ".jsonnet" {
		vm := jsonnet.MakeVM()
		vm.Importer(&jsonnet.FileImporter{JPaths: []string{path.Dir(p)}})
		jstr, err := vm.EvaluateAnonymousSnippet(p, string(b))
		if err != nil {
			return Config{}, &engine.ConfigError{Path: p, Err: fmt.Errorf("evaluating jsonnet: %w", err)}
		}
		b = []byte(jstr)
	}
	var doc struct {
		Version string            `yaml:"version"`
		Filters []engine.RuleSpec `yaml:"filters"`
		Rules   []engine.RuleSpec `yaml:"rules"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return Config{}, &engine.ConfigError{Path: p, Err: fmt.Errorf("decoding: %w", err)}
	}
	cfg := Config{Version: doc.Version, Filters: doc.Filters}
	if len(cfg.Filters) == 0 {
		cfg.Filters = doc.Rules
	}
	if err := validate(cfg); err != nil {
		return Config{}, &engine.ConfigError{Path: p, Err: err}
	}
	return cfg, nil
}

// validate collects all rule problems rather than stopping at the first
// one, so a bad document is fixable in one pass.
func validate(cfg Config) error {
	var res *multierror.Error
	if len(cfg.Filters) == 0 {
		res = multierror.Append(res, fmt.Errorf("no filters defined (expected a top-level \"filters\" list)"))
	}
	for i, r := range cfg.Filters {
		if r.Match.Empty() {
			res = multierror.Append(res, fmt.Errorf("rule #%d: empty match", i))
		}
		if r.Action.Empty() {
			res = multierror.Append(res, fmt.Errorf("rule #%d: empty action", i))
		}
		if r.Match.SizeComparison != "" &&
			r.Match.SizeComparison != "larger" && r.Match.SizeComparison != "smaller" {
			res = multierror.Append(res, fmt.Errorf("rule #%d: sizeComparison must be larger or smaller, got %q",
				i, r.Match.SizeComparison))
		}
	}
	return res.ErrorOrNil()
}

// WriteConfig renders a desired-state document as YAML.
func WriteConfig(p string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(p, b, 0o600)
}
