package report

import (
	"sort"
	"strconv"
)

// Student is one roster entry.
type Student struct {
	RollNumber string `json:"Roll Number"`
	Name       string `json:"Name"`
}

// Students lists the roster of the first subject section sorted by numeric
// roll number. Rows whose first cell is not all digits are skipped. Sheets
// with fewer than four rows yield an empty roster.
func Students(grid [][]string) []Student {
	if len(grid) < minSheetRows {
		return []Student{}
	}
	sec := SubjectSections(grid)[0]
	header, ok := sectionHeader(grid, sec)
	if !ok {
		return []Student{}
	}

	students := []Student{}
	sectionRows(grid, header+2, func(row []string) bool {
		if len(row) < 2 {
			return true
		}
		if roll := cell(row, 0); isRollNumber(roll) {
			students = append(students, Student{RollNumber: roll, Name: cell(row, 1)})
		}
		return true
	})

	sort.SliceStable(students, func(i, j int) bool {
		return rollValue(students[i].RollNumber) < rollValue(students[j].RollNumber)
	})
	return students
}

// sectionHeader resolves the header row of a section. A sheet without any
// "Class" row falls back to its second row.
func sectionHeader(grid [][]string, sec Section) (int, bool) {
	if i, ok := headerRow(grid, sec.Start); ok {
		return i, true
	}
	if sec.Start == 0 && len(grid) > 1 && cell(grid[0], 0) != classMarker {
		return 1, true
	}
	return 0, false
}

func rollValue(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
