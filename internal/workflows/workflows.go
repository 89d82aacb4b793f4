package workflows

import (
	"time"

	"felixplore/internal/activities"
	"felixplore/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetLoadProgress = "GetLoadProgress"

// ArticleLoadWorkflow runs one bulk load. The load is attempted exactly once:
// a failed run has already rolled back, and re-running is an operator choice.
func ArticleLoadWorkflow(ctx workflow.Context, input LoadInput) (models.LoadResult, error) {
	progress := LoadProgress{State: LoadStateRunning, Path: input.Path, Table: input.Table}
	if err := workflow.SetQueryHandler(ctx, QueryGetLoadProgress, func() (LoadProgress, error) {
		return progress, nil
	}); err != nil {
		return models.LoadResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var res models.LoadResult
	err := workflow.ExecuteActivity(ctx, "LoadArticlesActivity", activities.LoadArticlesInput{
		Path:  input.Path,
		Table: input.Table,
	}).Get(ctx, &res)
	progress.Result = res
	if err != nil {
		progress.State = LoadStateFailed
		progress.Error = err.Error()
		workflow.GetLogger(ctx).Error("article load failed", "path", input.Path, "table", input.Table, "error", err)
		return res, err
	}
	progress.State = LoadStateCompleted
	workflow.GetLogger(ctx).Info("article load completed", "inserted", res.Inserted, "null_vectors", res.NullVectors)
	return res, nil
}
