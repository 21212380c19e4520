package compare

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strings"

	"github.com/oneconcern/yap/pkg/model"
	"github.com/pmezard/go-difflib/difflib"
)

const fieldSeparator = "\x1f"

type tabularComparator struct{}

type table struct {
	header []string
	rows   []string
}

func readTable(b Blob) (*table, error) {
	rdr, err := b.Open()
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	r := csv.NewReader(rdr)
	if b.Ext() == "tsv" {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	t := &table{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrSnapshotUnreadable.Wrap(err).WrapMessage("parsing %q", b.Path)
		}
		if t.header == nil {
			t.header = append([]string{}, record...)
			continue
		}
		t.rows = append(t.rows, strings.Join(record, fieldSeparator))
	}
	return t, nil
}

func (tabularComparator) Compare(ctx context.Context, current, previous Blob) (model.Tree, error) {
	cur, err := readTable(current)
	if err != nil {
		return nil, err
	}
	prev, err := readTable(previous)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	columnsAdded, columnsRemoved := diffHeadings(prev.header, cur.header)

	matcher := difflib.NewMatcher(prev.rows, cur.rows)
	var added, removed, modified int
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'i':
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'r':
			prevCount, curCount := op.I2-op.I1, op.J2-op.J1
			common := min(prevCount, curCount)
			modified += common
			added += curCount - common
			removed += prevCount - common
		}
	}

	r := 1.0
	if len(prev.rows)+len(cur.rows) > 0 {
		r = math.Round(matcher.Ratio()*10000) / 10000
	}

	return model.Tree{
		changedKey: added+removed+modified+len(columnsAdded)+len(columnsRemoved) > 0,
		similarityKey: model.Tree{
			"kind":            string(ContentTabular),
			"ratio":           r,
			"columns_added":   columnsAdded,
			"columns_removed": columnsRemoved,
			"rows_previous":   len(prev.rows),
			"rows_current":    len(cur.rows),
			"rows_added":      added,
			"rows_removed":    removed,
			"rows_modified":   modified,
		},
	}, nil
}
