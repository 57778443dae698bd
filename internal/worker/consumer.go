package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/uncommithq/uncommit/backend/internal/events"
	"github.com/uncommithq/uncommit/backend/internal/pipeline"
)

// PipelineConsumer runs queued changelog jobs. Queue subscription spreads
// jobs across worker replicas; delivery is at-most-once, a crashed run is
// not retried.
type PipelineConsumer struct {
	Sub      *nats.Subscription
	Pipeline *pipeline.Pipeline
}

func (c *PipelineConsumer) Subscribe(ctx context.Context, nc *nats.Conn, queue string) error {
	if nc == nil {
		return nil
	}
	if queue == "" {
		queue = "uncommit-workers"
	}

	sub, err := nc.QueueSubscribe(events.SubjectChangelogPipelineRun, queue, func(msg *nats.Msg) {
		var job events.ChangelogPipelineRun
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			slog.Error("bad pipeline job", "error", err)
			return
		}

		result, err := c.Pipeline.Run(context.Background(), job)
		if err != nil {
			slog.Error("pipeline run failed",
				"project_id", job.ProjectID,
				"repo", job.RepoOwner+"/"+job.RepoName,
				"error", err,
			)
			return
		}
		if result.Skipped {
			slog.Info("pipeline run skipped",
				"project_id", job.ProjectID,
				"reason", result.Reason,
			)
			return
		}
		slog.Info("changelog released",
			"project_id", job.ProjectID,
			"version", result.Version,
			"post_id", result.PostID.String(),
			"link", result.Link,
		)
	})
	if err != nil {
		return err
	}
	c.Sub = sub

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()

	return nil
}
