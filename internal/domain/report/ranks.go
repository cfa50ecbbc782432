package report

import "sort"

// TopicRanks ranks every student of the section starting at start, per
// topic, by marks descending. Equal marks share a rank and the next rank
// skips accordingly (9, 9, 8 ranks 1, 1, 3). Non-numeric marks are left out.
func TopicRanks(grid [][]string, start int) map[string]map[string]int {
	ranks := make(map[string]map[string]int)
	header, ok := sectionHeader(grid, Section{Start: start})
	if !ok {
		return ranks
	}

	type entry struct {
		roll  string
		marks float64
	}
	for _, tc := range topicColumns(grid[header]) {
		var entries []entry
		sectionRows(grid, header+2, func(row []string) bool {
			roll := cell(row, 0)
			if !isRollNumber(roll) {
				return true
			}
			if m, ok := parseMarks(cell(row, tc.col+1)); ok {
				entries = append(entries, entry{roll: roll, marks: m})
			}
			return true
		})
		if len(entries) == 0 {
			continue
		}

		sort.SliceStable(entries, func(i, j int) bool { return entries[i].marks > entries[j].marks })
		byRoll := make(map[string]int, len(entries))
		rank := 1
		for i, e := range entries {
			if i > 0 && e.marks < entries[i-1].marks {
				rank = i + 1
			}
			byRoll[e.roll] = rank
		}
		ranks[tc.name] = byRoll
	}
	return ranks
}
