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

package engine

import "fmt"

// ConfigError reports an invalid desired-state document.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// PreconditionError reports a failed pre-mutation gate, such as an
// unverified forwarding address. No mutation has happened when one of
// these is returned.
type PreconditionError struct {
	Forward string
	Reason  string
}

func (e *PreconditionError) Error() string {
	if e.Forward != "" {
		return fmt.Sprintf("precondition failed: forwarding address %q is not verified", e.Forward)
	}
	return fmt.Sprintf("precondition failed: %s", e.Reason)
}

// ProviderError wraps a failure from the remote mail provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
