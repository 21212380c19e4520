package compare

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/oneconcern/yap/pkg/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const similarityKey = "similarity"

type markdownComparator struct{}

func (markdownComparator) Compare(ctx context.Context, current, previous Blob) (model.Tree, error) {
	cur, err := current.ReadAll()
	if err != nil {
		return nil, err
	}
	prev, err := previous.ReadAll()
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	from, to := string(prev), string(cur)
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var added, removed int
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(diff.Text)
		}
	}

	sectionsAdded, sectionsRemoved := diffHeadings(headings(from), headings(to))

	return model.Tree{
		changedKey: added+removed > 0,
		similarityKey: model.Tree{
			"kind":             string(ContentMarkdown),
			"ratio":            ratio(dmp.DiffLevenshtein(diffs), max(utf8.RuneCountInString(from), utf8.RuneCountInString(to))),
			"lines_added":      added,
			"lines_removed":    removed,
			"sections_added":   sectionsAdded,
			"sections_removed": sectionsRemoved,
		},
	}, nil
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// ratio of similarity, given an edit distance and the size of the largest side
func ratio(distance, size int) float64 {
	if size == 0 {
		return 1
	}
	r := 1 - float64(distance)/float64(size)
	if r < 0 {
		r = 0
	}
	return math.Round(r*10000) / 10000
}

// headings lists ATX headings ("# Title") outside fenced code blocks
func headings(text string) []string {
	var (
		result  []string
		inFence bool
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "#") {
			continue
		}
		level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		if level > 6 || (len(trimmed) > level && trimmed[level] != ' ') {
			continue
		}
		result = append(result, strings.TrimSpace(trimmed))
	}
	return result
}

func diffHeadings(from, to []string) (added, removed []string) {
	inFrom := make(map[string]int, len(from))
	for _, h := range from {
		inFrom[h]++
	}
	inTo := make(map[string]int, len(to))
	for _, h := range to {
		inTo[h]++
	}

	added = []string{}
	for _, h := range to {
		if inFrom[h] > 0 {
			inFrom[h]--
			continue
		}
		added = append(added, h)
	}
	removed = []string{}
	for _, h := range from {
		if inTo[h] > 0 {
			inTo[h]--
			continue
		}
		removed = append(removed, h)
	}
	return added, removed
}
