package activities

import (
	"path/filepath"
	"testing"

	"felixplore/internal/config"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func TestLoadArticlesActivityMissingFileIsNonRetryable(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	a := New(config.Config{ParquetPath: "/nonexistent/default.parquet", Table: "articles", PostgresHost: "db.invalid", PostgresPort: 1})
	env.RegisterActivity(a.LoadArticlesActivity)

	_, err := env.ExecuteActivity(a.LoadArticlesActivity, LoadArticlesInput{Path: filepath.Join(t.TempDir(), "missing.parquet")})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())
	require.Equal(t, "ColumnarReadError", appErr.Type())
	require.Contains(t, err.Error(), "missing.parquet")
}

func TestLoadArticlesActivityRejectsBadTableName(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	a := New(config.Config{ParquetPath: "/nonexistent/default.parquet", Table: "articles"})
	env.RegisterActivity(a.LoadArticlesActivity)

	_, err := env.ExecuteActivity(a.LoadArticlesActivity, LoadArticlesInput{Table: `articles"; DROP TABLE x; --`})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())
	require.Equal(t, "InvalidTableName", appErr.Type())
}
