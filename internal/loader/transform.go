package loader

import (
	"fmt"
	"math"
	"time"

	"felixplore/internal/columnar"
	"felixplore/internal/models"
	"felixplore/internal/util"
	"felixplore/internal/vector"
)

// Transform maps one source row onto the table's columns. Problems that should
// not stop the load, such as an unstorable vector, come back as warnings and
// the affected column is left NULL.
func Transform(row columnar.SourceRow) (models.Article, []string) {
	var warnings []string
	a := models.Article{
		Publication: util.SanitizeNullable(row.Publication),
		Headline:    util.SanitizeNullable(row.Headline),
		Txt:         util.SanitizeNullable(row.Txt),
		Strapline:   util.SanitizeNullable(row.Strapline),
		Author:      util.SanitizeNullable(row.Author),
		Category:    util.SanitizeNullable(row.Category),
		ArticleDate: calendarDate(row.Date),
	}

	var w string
	if a.IssueNo, w = smallint("issue_no", row.IssueNo); w != "" {
		warnings = append(warnings, w)
	}
	if a.PageNo, w = smallint("page_no", row.PageNo); w != "" {
		warnings = append(warnings, w)
	}

	if len(row.Vector) > 0 {
		if _, err := vector.NullableLiteral(row.Vector); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not convert vector data (%d values): %v", len(row.Vector), err))
		} else {
			a.Vector = row.Vector
		}
	}
	return a, warnings
}

func calendarDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func smallint(column string, v *int64) (*int16, string) {
	if v == nil {
		return nil, ""
	}
	if *v < math.MinInt16 || *v > math.MaxInt16 {
		return nil, fmt.Sprintf("%s %d out of smallint range", column, *v)
	}
	n := int16(*v)
	return &n, ""
}
