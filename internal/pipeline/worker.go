package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Artem9908/msgsplit"
	"github.com/Artem9908/msgsplit/internal/notify"
	"github.com/Artem9908/msgsplit/internal/parser"
)

// Worker processes a single split job.
type Worker struct {
	notifier *notify.Client
	opts     parser.Options
	log      *slog.Logger
}

func NewWorker(notifier *notify.Client, opts parser.Options, log *slog.Logger) *Worker {
	return &Worker{
		notifier: notifier,
		opts:     opts,
		log:      log,
	}
}

// Process runs the full split pipeline for a job: parse the input into
// HTML, split it into fragments, and deliver them when a webhook is
// configured.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	source, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if strings.TrimSpace(source) == "" {
		log.Warn("no content to split")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Split
	job.SetStatus(StatusSplitting, "splitting")
	fragments, err := msgsplit.Split(source, job.MaxLen)
	if err != nil {
		log.Error("split failed", "error", err)
		job.AddError(fmt.Sprintf("split: %s", err))
		job.SetStatus(StatusFailed, "splitting")
		return
	}
	job.SetFragments(fragments)
	log.Info("split document", "fragments", len(fragments), "max_len", job.MaxLen)

	// Phase 3: Deliver
	if w.notifier != nil {
		job.SetStatus(StatusDelivering, "delivering")
		err := w.notifier.SendFragments(ctx, job.ID, fragments, func(int) {
			job.IncrDelivered()
		})
		if err != nil {
			log.Error("delivery failed", "error", err)
			job.AddError(fmt.Sprintf("deliver: %s", err))
			job.SetStatus(StatusFailed, "delivering")
			return
		}
		log.Info("delivery complete", "fragments", len(fragments))
	}

	job.SetStatus(StatusCompleted, "done")
}
