package filesystem

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// computeDiff returns a unified diff between oldContent and newContent labeled
// with the given path. Returns an empty string when the contents are equal.
func computeDiff(path, oldContent, newContent string) string {
	diff := difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}

	result, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("(diff error: %v)", err)
	}

	return result
}

// splitLines treats empty content as zero lines rather than one blank line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(s)
}
