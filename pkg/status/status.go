// Copyright 2025 walteh LLC
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

package status

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/walteh/projectbackup/pkg/export"
	"gitlab.com/tozd/go/errors"
)

// 📊 ReportTable lays out the counters of a report
func ReportTable(report *export.Report) pterm.TableData {
	return pterm.TableData{
		{"Outcome", "Files"},
		{export.OutcomeProcessed.String(), strconv.Itoa(report.Processed)},
		{export.OutcomeSkipped.String(), strconv.Itoa(report.Skipped)},
		{export.OutcomeFailed.String(), strconv.Itoa(report.Failed)},
		{export.OutcomeNotProcessed.String(), strconv.Itoa(report.NotProcessed)},
		{"total", strconv.Itoa(report.Total)},
	}
}

// 🖨️ PrintReport writes the summary table of a report to w
func PrintReport(w io.Writer, report *export.Report) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithData(ReportTable(report)).Srender()
	if err != nil {
		return errors.Errorf("rendering report: %w", err)
	}

	_, err = fmt.Fprintln(w, table)
	return err
}

// 🌳 TreeEntry is a file, or a folder that could not be listed, shown in a
// project tree
type TreeEntry struct {
	RelPath string // Slash separated, relative to the project root
	Note    string // Shown next to the entry when set
}

// LeveledList turns walk-ordered entries into an indented list, emitting
// each folder once before its first entry
func LeveledList(entries []TreeEntry) pterm.LeveledList {
	var list pterm.LeveledList
	var prev []string

	for _, e := range entries {
		segs := strings.Split(e.RelPath, "/")
		dirs := segs[:len(segs)-1]

		common := 0
		for common < len(dirs) && common < len(prev) && dirs[common] == prev[common] {
			common++
		}
		for i := common; i < len(dirs); i++ {
			list = append(list, pterm.LeveledListItem{Level: i, Text: dirs[i]})
		}

		text := segs[len(segs)-1]
		if text == "" {
			text = "."
		}
		if e.Note != "" {
			text = fmt.Sprintf("%s (%s)", text, e.Note)
		}
		list = append(list, pterm.LeveledListItem{Level: len(dirs), Text: text})

		prev = dirs
	}

	return list
}

// 🌳 RenderTree renders entries below a root named rootName
func RenderTree(rootName string, entries []TreeEntry) (string, error) {
	root := putils.TreeFromLeveledList(LeveledList(entries))
	root.Text = rootName

	out, err := pterm.DefaultTree.WithRoot(root).Srender()
	if err != nil {
		return "", errors.Errorf("rendering tree: %w", err)
	}
	return out, nil
}
