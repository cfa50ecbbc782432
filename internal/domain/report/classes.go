package report

import (
	"sort"
	"strconv"
)

// SortClasses orders class names such as "10A", "1B", "2A" by their numeric
// grade, then by section letter. Names without a numeric grade sort first,
// alphabetically.
func SortClasses(names []string) []string {
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		gi, si := classKey(out[i])
		gj, sj := classKey(out[j])
		if gi != gj {
			return gi < gj
		}
		return si < sj
	})
	return out
}

func classKey(name string) (int, string) {
	if len(name) < 2 {
		return 0, name
	}
	grade, err := strconv.Atoi(name[:len(name)-1])
	if err != nil {
		return 0, name
	}
	return grade, name[len(name)-1:]
}
