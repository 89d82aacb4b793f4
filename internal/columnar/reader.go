// Package columnar adapts the Parquet article dump to typed Go rows.
package columnar

import (
	"errors"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ErrRead marks failures to open or decode the input file. Callers use it to
// tell file problems apart from database problems.
var ErrRead = errors.New("read columnar file")

// SourceRow mirrors the dump's columns. Absent columns and null cells decode
// to nil.
type SourceRow struct {
	Publication *string    `parquet:"publication,optional"`
	IssueNo     *int64     `parquet:"issue_no,optional"`
	PageNo      *int64     `parquet:"page_no,optional"`
	Headline    *string    `parquet:"headline,optional"`
	Txt         *string    `parquet:"txt,optional"`
	Strapline   *string    `parquet:"strapline,optional"`
	Author      *string    `parquet:"author,optional"`
	Category    *string    `parquet:"category,optional"`
	Vector      []float32  `parquet:"vector,list"`
	Date        *time.Time `parquet:"date,optional"`
}

// ReadArticles loads every row of the file at path into memory.
func ReadArticles(path string) ([]SourceRow, error) {
	rows, err := parquet.ReadFile[SourceRow](path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	return rows, nil
}

// WriteArticles writes rows in the same layout ReadArticles expects.
func WriteArticles(path string, rows []SourceRow) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write columnar file %s: %w", path, err)
	}
	return nil
}
