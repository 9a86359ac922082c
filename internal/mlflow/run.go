package mlflow

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

func (c *Client) CreateRun(ctx context.Context, config *models.RunConfig) (*models.RunInfo, error) {
	if config.ExperimentID == nil {
		return nil, fmt.Errorf("experiment ID must be provided")
	}
	experimentID := *config.ExperimentID

	startTime := c.clock.Now()
	runName := "run-" + startTime.Format("2006-01-02-15-04-05")
	if config.RunName != nil {
		runName = *config.RunName
	}

	tags := make([]ml.RunTag, 0, len(config.Tags)+2)
	for key, value := range config.Tags {
		tags = append(tags, ml.RunTag{Key: key, Value: value})
	}
	tags = append(tags, ml.RunTag{Key: "mlflow.runName", Value: runName})

	var description string
	if config.Description != nil {
		description = *config.Description
		tags = append(tags, ml.RunTag{Key: "mlflow.note.content", Value: description})
	}

	resp, err := c.experiments.CreateRun(ctx, ml.CreateRun{
		ExperimentId: experimentID,
		RunName:      runName,
		StartTime:    startTime.UnixMilli(),
		Tags:         tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	info := &models.RunInfo{
		ExperimentID: experimentID,
		RunName:      runName,
		Status:       string(models.RunStatusRunning),
		StartTime:    startTime,
		Tags:         config.Tags,
		Description:  description,
	}
	if resp.Run != nil && resp.Run.Info != nil {
		info.RunID = resp.Run.Info.RunId
		info.ArtifactURI = resp.Run.Info.ArtifactUri
	}
	if info.RunID == "" {
		return nil, fmt.Errorf("failed to create run: server returned no run ID")
	}
	return info, nil
}

func (c *Client) UpdateRun(ctx context.Context, runID string, status models.RunStatus) error {
	var mlStatus ml.UpdateRunStatus
	switch status {
	case models.RunStatusRunning:
		mlStatus = ml.UpdateRunStatusRunning
	case models.RunStatusFinished:
		mlStatus = ml.UpdateRunStatusFinished
	case models.RunStatusFailed:
		mlStatus = ml.UpdateRunStatusFailed
	case models.RunStatusKilled:
		mlStatus = ml.UpdateRunStatusKilled
	default:
		mlStatus = ml.UpdateRunStatusFinished
	}

	updateRun := ml.UpdateRun{
		RunId:  runID,
		Status: mlStatus,
	}
	if status != models.RunStatusRunning {
		updateRun.EndTime = c.clock.Now().UnixMilli()
	}

	if _, err := c.experiments.UpdateRun(ctx, updateRun); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (c *Client) LogMetrics(ctx context.Context, runID string, metrics []models.Metric) error {
	for _, metric := range metrics {
		err := c.experiments.LogMetric(ctx, ml.LogMetric{
			RunId:     runID,
			Key:       metric.Key,
			Value:     metric.Value,
			Timestamp: metric.Timestamp.UnixMilli(),
			Step:      metric.Step,
		})
		if err != nil {
			return fmt.Errorf("failed to log metric %s: %w", metric.Key, err)
		}
	}
	return nil
}

func (c *Client) LogParams(ctx context.Context, runID string, params []models.Parameter) error {
	for _, param := range params {
		err := c.experiments.LogParam(ctx, ml.LogParam{
			RunId: runID,
			Key:   param.Key,
			Value: param.Value,
		})
		if err != nil {
			return fmt.Errorf("failed to log parameter %s: %w", param.Key, err)
		}
	}
	return nil
}
