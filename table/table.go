// Package table implements the back-office list behavior: search, filter,
// sort and pagination over rows already loaded in memory.
package table

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PageSizes are the allowed rows-per-page values.
var PageSizes = []int{10, 25, 50}

// DefaultPageSize is used when the requested size is not allowed.
const DefaultPageSize = 10

// Column describes one field of T.
type Column[T any] struct {
	Key      string
	Header   string
	Sortable bool
	Value    func(T) any
}

// Sort orders rows by the column named Key.
type Sort struct {
	Key  string
	Desc bool
}

// Query is what the user asked for.
type Query struct {
	Search  string
	Sort    *Sort
	Page    int
	PerPage int
}

// Result is one page of rows with its position in the full result.
type Result[T any] struct {
	Rows      []T `json:"rows"`
	Total     int `json:"total"`
	From      int `json:"from"`
	To        int `json:"to"`
	Page      int `json:"page"`
	PerPage   int `json:"perPage"`
	PageCount int `json:"pageCount"`
}

// Table binds columns to a row type.
type Table[T any] struct {
	Columns []Column[T]
	// SearchKeys limits search to these columns; empty means all columns.
	SearchKeys []string
	// Filter is applied after search with the raw search string.
	Filter func(row T, search string) bool
	// Language drives string collation; English when unset.
	Language language.Tag
}

func (t Table[T]) column(key string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Apply runs search, filter, sort and pagination. rows is not modified.
func (t Table[T]) Apply(rows []T, q Query) Result[T] {
	matched := t.search(rows, q.Search)

	if t.Filter != nil {
		kept := matched[:0:0]
		for _, row := range matched {
			if t.Filter(row, q.Search) {
				kept = append(kept, row)
			}
		}
		matched = kept
	}

	if q.Sort != nil {
		if col, ok := t.column(q.Sort.Key); ok && col.Value != nil {
			t.sort(matched, col, q.Sort.Desc)
		}
	}

	return paginate(matched, q.Page, q.PerPage)
}

func (t Table[T]) search(rows []T, raw string) []T {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return slices.Clone(rows)
	}

	var cols []Column[T]
	if len(t.SearchKeys) == 0 {
		cols = t.Columns
	} else {
		for _, k := range t.SearchKeys {
			if c, ok := t.column(k); ok {
				cols = append(cols, c)
			}
		}
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, c := range cols {
			if c.Value == nil {
				continue
			}
			if strings.Contains(strings.ToLower(text(c.Value(row))), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func (t Table[T]) sort(rows []T, col Column[T], desc bool) {
	tag := t.Language
	if tag == language.Und {
		tag = language.English
	}
	// Collators are not safe for concurrent use
	coll := collate.New(tag)

	slices.SortStableFunc(rows, func(a, b T) int {
		cmp := compare(coll, col.Value(a), col.Value(b))
		if desc {
			return -cmp
		}
		return cmp
	})
}

// compare orders numbers numerically, times chronologically and everything
// else as collated text. nil sorts as the empty string.
func compare(coll *collate.Collator, a, b any) int {
	an, aNum := number(a)
	bn, bNum := number(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	return coll.CompareString(text(a), text(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case time.Time:
		return float64(n.UnixNano()), true
	case *time.Time:
		if n != nil {
			return float64(n.UnixNano()), true
		}
	}
	return 0, false
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case time.Time:
		return s.Format(time.RFC3339)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

// NormalizePageSize maps any requested size onto PageSizes.
func NormalizePageSize(n int) int {
	if slices.Contains(PageSizes, n) {
		return n
	}
	return DefaultPageSize
}

func paginate[T any](rows []T, page, perPage int) Result[T] {
	perPage = NormalizePageSize(perPage)
	total := len(rows)
	pageCount := max(1, (total+perPage-1)/perPage)
	page = min(max(page, 1), pageCount)

	start := (page - 1) * perPage
	end := min(start+perPage, total)

	res := Result[T]{
		Rows:      rows[start:end],
		Total:     total,
		To:        end,
		Page:      page,
		PerPage:   perPage,
		PageCount: pageCount,
	}
	if total > 0 {
		res.From = start + 1
	}
	if res.Rows == nil {
		res.Rows = []T{}
	}
	return res
}
