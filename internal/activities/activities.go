package activities

import (
	"context"
	"errors"
	"fmt"

	"felixplore/internal/columnar"
	"felixplore/internal/config"
	"felixplore/internal/loader"
	"felixplore/internal/models"
	"felixplore/internal/storage"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

type Activities struct {
	cfg config.Config
}

func New(cfg config.Config) *Activities {
	return &Activities{cfg: cfg}
}

func (a *Activities) LoadArticlesActivity(ctx context.Context, in LoadArticlesInput) (models.LoadResult, error) {
	cfg := a.cfg
	if in.Path != "" {
		cfg.ParquetPath = in.Path
	}
	if in.Table != "" {
		if !storage.ValidTableName(in.Table) {
			return models.LoadResult{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("invalid table name %q", in.Table), "InvalidTableName", nil)
		}
		cfg.Table = in.Table
	}
	res, err := loader.Run(ctx, cfg, activityLogger{ctx: ctx})
	if errors.Is(err, columnar.ErrRead) {
		return res, temporal.NewNonRetryableApplicationError(err.Error(), "ColumnarReadError", err)
	}
	if err != nil {
		return res, fmt.Errorf("load articles: %w", err)
	}
	return res, nil
}

// activityLogger forwards loader progress lines to the activity's logger.
type activityLogger struct {
	ctx context.Context
}

func (l activityLogger) Printf(format string, v ...any) {
	activity.GetLogger(l.ctx).Info(fmt.Sprintf(format, v...))
}
