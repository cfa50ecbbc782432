// Package report turns class mark sheets into per-student progress reports.
//
// A sheet is a grid of cells. It holds one subject section per row whose
// first cell is exactly "Class". The header row of a section is the first
// row within five rows of its start whose first cell contains "Roll No.";
// one sub-header row follows, then student rows. Topic columns come in
// pairs: a time category followed by marks out of MaxMarks.
package report

import (
	"strconv"
	"strings"
)

const (
	classMarker      = "Class"
	rollHeaderMarker = "Roll No."
	topicPrefix      = "Topic"
	headerSearchRows = 5
	firstTopicColumn = 2
	minSheetRows     = 4
)

// Section is one subject block of a sheet.
type Section struct {
	Subject string
	Start   int
}

// SubjectSections locates the subject blocks of a sheet. Two or more
// "Class" rows name the first two Maths and Science; a single block, or a
// sheet with no "Class" row at all, is one block named Subject.
func SubjectSections(grid [][]string) []Section {
	var starts []int
	for i, row := range grid {
		if cell(row, 0) == classMarker {
			starts = append(starts, i)
		}
	}
	switch {
	case len(starts) >= 2:
		return []Section{{Subject: "Maths", Start: starts[0]}, {Subject: "Science", Start: starts[1]}}
	case len(starts) == 1:
		return []Section{{Subject: "Subject", Start: starts[0]}}
	default:
		return []Section{{Subject: "Subject", Start: 0}}
	}
}

// headerRow finds the "Roll No." row of the section starting at start.
func headerRow(grid [][]string, start int) (int, bool) {
	for i := start; i < min(start+headerSearchRows, len(grid)); i++ {
		if len(grid[i]) > 0 && strings.Contains(grid[i][0], rollHeaderMarker) {
			return i, true
		}
	}
	return 0, false
}

// topicColumn is the time column of a topic; marks sit one to the right.
type topicColumn struct {
	name string
	col  int
}

func topicColumns(header []string) []topicColumn {
	var cols []topicColumn
	for i := firstTopicColumn; i < len(header); {
		name := strings.TrimSpace(header[i])
		if strings.HasPrefix(name, topicPrefix) {
			cols = append(cols, topicColumn{name: name, col: i})
			i += 2
			continue
		}
		i++
	}
	return cols
}

// cell returns the trimmed cell or "" when the row is too short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isRollNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseMarks accepts unsigned decimal numbers such as "9" or "7.5".
func parseMarks(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// sectionRows yields the student rows of a section, stopping at the next
// "Class" row.
func sectionRows(grid [][]string, dataStart int, yield func(row []string) bool) {
	for i := dataStart; i < len(grid); i++ {
		row := grid[i]
		if cell(row, 0) == classMarker {
			return
		}
		if !yield(row) {
			return
		}
	}
}
