package loader

import (
	"math"
	"testing"
	"time"

	"felixplore/internal/columnar"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func TestTransformMapsColumns(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 59, 59, 999, time.UTC)
	vec := make([]float32, 768)
	for i := range vec {
		vec[i] = 0.1
	}
	a, warnings := Transform(columnar.SourceRow{
		Publication: strPtr("Felix"),
		IssueNo:     i64Ptr(1700),
		PageNo:      i64Ptr(3),
		Headline:    strPtr("Title"),
		Txt:         strPtr("Body\x00 text"),
		Vector:      vec,
		Date:        &ts,
	})
	require.Empty(t, warnings)
	require.Equal(t, "Felix", *a.Publication)
	require.Equal(t, int16(1700), *a.IssueNo)
	require.Equal(t, int16(3), *a.PageNo)
	require.Equal(t, "Body text", *a.Txt)
	require.Nil(t, a.Strapline)
	require.Nil(t, a.Author)
	require.Nil(t, a.Category)
	require.Equal(t, vec, a.Vector)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *a.ArticleDate)
}

func TestTransformKeepsTextControls(t *testing.T) {
	txt := "Page\fbreak \x1b[1mbold\x1b[0m"
	a, warnings := Transform(columnar.SourceRow{Txt: strPtr(txt), Headline: strPtr("Tab\there")})
	require.Empty(t, warnings)
	require.Equal(t, txt, *a.Txt)
	require.Equal(t, "Tab\there", *a.Headline)
}

func TestTransformMissingFieldsAreNull(t *testing.T) {
	a, warnings := Transform(columnar.SourceRow{})
	require.Empty(t, warnings)
	require.Nil(t, a.Publication)
	require.Nil(t, a.IssueNo)
	require.Nil(t, a.PageNo)
	require.Nil(t, a.Txt)
	require.Nil(t, a.Vector)
	require.Nil(t, a.ArticleDate)
}

func TestTransformBadVectorIsNulledWithWarning(t *testing.T) {
	a, warnings := Transform(columnar.SourceRow{
		Headline: strPtr("still inserted"),
		Vector:   []float32{0.1, float32(math.NaN())},
	})
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "could not convert vector data")
	require.Nil(t, a.Vector)
	require.Equal(t, "still inserted", *a.Headline)
}

func TestTransformSmallintOverflow(t *testing.T) {
	a, warnings := Transform(columnar.SourceRow{IssueNo: i64Ptr(70000), PageNo: i64Ptr(-1)})
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "issue_no 70000")
	require.Nil(t, a.IssueNo)
	require.Equal(t, int16(-1), *a.PageNo)
}

func TestTransformKeepsWallClockDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2011, 1, 14, 1, 0, 0, 0, loc)
	a, _ := Transform(columnar.SourceRow{Date: &ts})
	require.Equal(t, time.Date(2011, 1, 14, 0, 0, 0, 0, time.UTC), *a.ArticleDate)
}
