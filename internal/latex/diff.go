package latex

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders the change from before to after as a unified diff
// labelled with path. Identical texts yield an empty string.
func UnifiedDiff(path, before, after string) string {
	if before == after {
		return ""
	}

	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}

	res, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(res)
}
