// Package workflow drives a language variant through publish, unpublish,
// archive and step-change operations against a target environment.
package workflow

import (
	"context"
	"log/slog"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/progress"
)

// StepCategory classifies a workflow step. Published, scheduled and
// archived steps are structurally distinguished on every workflow; all
// other steps are regular.
type StepCategory int

const (
	StepRegular StepCategory = iota
	StepPublished
	StepScheduled
	StepArchived
)

// Engine resolves workflows by codename and performs state transitions.
type Engine struct {
	client        kontent.API
	workflows     []kontent.Workflow
	stepCodenames map[string]string
	reporter      *progress.Reporter
	logger        *slog.Logger
}

// NewEngine creates a workflow engine over the target environment's
// workflow set.
func NewEngine(client kontent.API, workflows []kontent.Workflow, reporter *progress.Reporter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = progress.Discard()
	}
	stepCodenames := make(map[string]string)
	for _, wf := range workflows {
		for _, s := range wf.Steps {
			stepCodenames[s.ID] = s.Codename
		}
		stepCodenames[wf.PublishedStep.ID] = wf.PublishedStep.Codename
		stepCodenames[wf.ScheduledStep.ID] = wf.ScheduledStep.Codename
		stepCodenames[wf.ArchivedStep.ID] = wf.ArchivedStep.Codename
	}
	return &Engine{client: client, workflows: workflows, stepCodenames: stepCodenames, reporter: reporter, logger: logger}
}

// CurrentStepCodename normalizes a fetched variant's step identifier to a
// codename. The wire form identifies the step by internal ID only, so a
// codename comparison against it would never match. Unknown IDs resolve to
// the empty string, which no target step codename equals.
func (e *Engine) CurrentStepCodename(ref kontent.ObjectReference) string {
	if ref.Codename != "" {
		return ref.Codename
	}
	return e.stepCodenames[ref.ID]
}

// workflowByCodename resolves a workflow. Unknown codenames are fatal and
// the error names the valid alternatives.
func (e *Engine) workflowByCodename(codename string) (*kontent.Workflow, error) {
	var valid []string
	for i := range e.workflows {
		if e.workflows[i].Codename == codename {
			return &e.workflows[i], nil
		}
		valid = append(valid, e.workflows[i].Codename)
	}
	return nil, merrors.ErrWorkflowNotFound(codename, valid)
}

// classifyStep resolves a step codename within a workflow. Unknown step
// codenames are fatal and the error enumerates the workflow's steps.
func classifyStep(wf *kontent.Workflow, stepCodename string) (StepCategory, *kontent.WorkflowStep, error) {
	switch stepCodename {
	case wf.PublishedStep.Codename:
		return StepPublished, &wf.PublishedStep, nil
	case wf.ScheduledStep.Codename:
		return StepScheduled, &wf.ScheduledStep, nil
	case wf.ArchivedStep.Codename:
		return StepArchived, &wf.ArchivedStep, nil
	}
	var valid []string
	for i := range wf.Steps {
		if wf.Steps[i].Codename == stepCodename {
			return StepRegular, &wf.Steps[i], nil
		}
		valid = append(valid, wf.Steps[i].Codename)
	}
	valid = append(valid,
		wf.PublishedStep.Codename, wf.ScheduledStep.Codename, wf.ArchivedStep.Codename)
	return 0, nil, merrors.ErrWorkflowStepNotFound(wf.Codename, stepCodename, valid)
}

// Transition moves a variant to the target workflow step. currentStep is
// the variant's step codename after upsert; moving to the step it is
// already in is a no-op.
func (e *Engine) Transition(ctx context.Context, itemCodename, languageCodename, workflowCodename, stepCodename, currentStep string) error {
	wf, err := e.workflowByCodename(workflowCodename)
	if err != nil {
		return err
	}
	category, step, err := classifyStep(wf, stepCodename)
	if err != nil {
		return err
	}

	switch category {
	case StepPublished:
		// Publish unconditionally; the operation is idempotent-safe on
		// the backend side.
		e.reporter.Report(progress.ActionPublish, "variant", itemCodename)
		return e.client.PublishVariant(ctx, itemCodename, languageCodename)

	case StepScheduled:
		// Scheduling cannot be set programmatically.
		e.logger.Info("skipping scheduled step, cannot be set via api",
			"item", itemCodename, "language", languageCodename)
		e.reporter.Report(progress.ActionSkip, "variant", itemCodename)
		return nil

	case StepArchived:
		// There is no reliable way to know in advance whether the variant
		// is published, so unpublish first and tolerate exactly the
		// not-published domain error.
		e.reporter.Report(progress.ActionUnpublish, "variant", itemCodename)
		if err := e.client.UnpublishVariant(ctx, itemCodename, languageCodename); err != nil {
			if !kontent.IsVariantNotPublished(err) {
				return err
			}
			e.logger.Info("variant not published, archiving directly",
				"item", itemCodename, "language", languageCodename)
		}
		e.reporter.Report(progress.ActionArchive, "variant", itemCodename)
		return e.client.ChangeWorkflowStep(ctx, itemCodename, languageCodename,
			kontent.ObjectReference{Codename: wf.Codename},
			kontent.ObjectReference{Codename: step.Codename})

	default:
		if stepCodename == currentStep {
			return nil
		}
		e.reporter.Report(progress.ActionChangeStep, "variant", itemCodename)
		return e.client.ChangeWorkflowStep(ctx, itemCodename, languageCodename,
			kontent.ObjectReference{Codename: wf.Codename},
			kontent.ObjectReference{Codename: step.Codename})
	}
}
