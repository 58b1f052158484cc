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

// Package reporting renders human-facing plan output.
package reporting

import (
	"strings"

	"github.com/fatih/color"
)

// ColorizeDiff applies terminal colors to a unified diff: headers bold,
// hunk markers cyan, removals red, additions green.
func ColorizeDiff(diff string) string {
	out := &strings.Builder{}
	lines := strings.Split(diff, "\n")
	colorBold := color.New(color.Bold)
	colorBold.EnableColor()
	colorCyan := color.New(color.FgCyan)
	colorCyan.EnableColor()
	colorRed := color.New(color.FgRed)
	colorRed.EnableColor()
	colorGreen := color.New(color.FgGreen)
	colorGreen.EnableColor()

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++"):
			colorBold.Fprint(out, line)
		case strings.HasPrefix(line, "@@"):
			colorCyan.Fprint(out, line)
		case strings.HasPrefix(line, "-"):
			colorRed.Fprint(out, line)
		case strings.HasPrefix(line, "+"):
			colorGreen.Fprint(out, line)
		default:
			out.WriteString(line)
		}
		if i < len(lines)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}
