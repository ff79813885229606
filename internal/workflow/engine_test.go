package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
)

// fakeVariantAPI records workflow calls. Only the methods the engine uses
// are implemented; anything else panics via the embedded nil interface.
type fakeVariantAPI struct {
	kontent.API

	publishCalls    int
	unpublishCalls  int
	changeStepCalls int

	unpublishErr error
	lastWorkflow kontent.ObjectReference
	lastStep     kontent.ObjectReference
}

func (f *fakeVariantAPI) PublishVariant(ctx context.Context, itemCodename, languageCodename string) error {
	f.publishCalls++
	return nil
}

func (f *fakeVariantAPI) UnpublishVariant(ctx context.Context, itemCodename, languageCodename string) error {
	f.unpublishCalls++
	return f.unpublishErr
}

func (f *fakeVariantAPI) ChangeWorkflowStep(ctx context.Context, itemCodename, languageCodename string, workflow, step kontent.ObjectReference) error {
	f.changeStepCalls++
	f.lastWorkflow = workflow
	f.lastStep = step
	return nil
}

func testWorkflows() []kontent.Workflow {
	return []kontent.Workflow{{
		ID:       "w1",
		Codename: "default",
		Steps: []kontent.WorkflowStep{
			{ID: "s1", Codename: "draft"},
			{ID: "s2", Codename: "review"},
		},
		PublishedStep: kontent.WorkflowStep{ID: "s3", Codename: "published"},
		ScheduledStep: kontent.WorkflowStep{ID: "s4", Codename: "scheduled"},
		ArchivedStep:  kontent.WorkflowStep{ID: "s5", Codename: "archived"},
	}}
}

func TestTransitionPublishes(t *testing.T) {
	api := &fakeVariantAPI{}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "published", "draft")
	require.NoError(t, err)
	assert.Equal(t, 1, api.publishCalls)
	assert.Equal(t, 0, api.unpublishCalls)
	assert.Equal(t, 0, api.changeStepCalls)
}

func TestTransitionScheduledIsSkipped(t *testing.T) {
	api := &fakeVariantAPI{}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "scheduled", "draft")
	require.NoError(t, err)
	assert.Equal(t, 0, api.publishCalls)
	assert.Equal(t, 0, api.unpublishCalls)
	assert.Equal(t, 0, api.changeStepCalls)
}

func TestTransitionArchivedUnpublishesFirst(t *testing.T) {
	api := &fakeVariantAPI{}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "archived", "published")
	require.NoError(t, err)
	assert.Equal(t, 1, api.unpublishCalls)
	assert.Equal(t, 1, api.changeStepCalls)
	assert.Equal(t, "archived", api.lastStep.Codename)
	assert.Equal(t, "default", api.lastWorkflow.Codename)
}

func TestTransitionArchivedToleratesNotPublished(t *testing.T) {
	api := &fakeVariantAPI{
		unpublishErr: &kontent.APIError{StatusCode: 400, Message: "variant is not published"},
	}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	// The not-published domain error is the one tolerated outcome; the
	// archive step change still happens.
	err := engine.Transition(context.Background(), "article", "en", "default", "archived", "draft")
	require.NoError(t, err)
	assert.Equal(t, 1, api.unpublishCalls)
	assert.Equal(t, 1, api.changeStepCalls)
}

func TestTransitionArchivedPropagatesOtherErrors(t *testing.T) {
	api := &fakeVariantAPI{
		unpublishErr: &kontent.APIError{StatusCode: 500, Message: "boom"},
	}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "archived", "draft")
	require.Error(t, err)
	assert.Equal(t, 0, api.changeStepCalls)
}

func TestTransitionRegularStep(t *testing.T) {
	api := &fakeVariantAPI{}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "review", "draft")
	require.NoError(t, err)
	assert.Equal(t, 1, api.changeStepCalls)
	assert.Equal(t, "review", api.lastStep.Codename)
}

func TestTransitionSameStepIsNoOp(t *testing.T) {
	api := &fakeVariantAPI{}
	engine := NewEngine(api, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "draft", "draft")
	require.NoError(t, err)
	assert.Equal(t, 0, api.changeStepCalls)
}

func TestCurrentStepCodenameMapsWireIdentifiers(t *testing.T) {
	engine := NewEngine(&fakeVariantAPI{}, testWorkflows(), nil, nil)

	// Fetched variants carry the step ID only.
	assert.Equal(t, "draft", engine.CurrentStepCodename(kontent.ObjectReference{ID: "s1"}))
	assert.Equal(t, "published", engine.CurrentStepCodename(kontent.ObjectReference{ID: "s3"}))
	// A codename, when present, wins over the ID.
	assert.Equal(t, "review", engine.CurrentStepCodename(kontent.ObjectReference{ID: "s1", Codename: "review"}))
	assert.Empty(t, engine.CurrentStepCodename(kontent.ObjectReference{ID: "unknown"}))
}

func TestTransitionUnknownWorkflowEnumeratesValid(t *testing.T) {
	engine := NewEngine(&fakeVariantAPI{}, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "missing", "draft", "")
	require.Error(t, err)

	merr := merrors.AsMigrateError(err)
	require.NotNil(t, merr)
	assert.Equal(t, merrors.CodeWorkflowNotFound, merr.Code)
	assert.Contains(t, merr.Why, "default")
}

func TestTransitionUnknownStepEnumeratesValid(t *testing.T) {
	engine := NewEngine(&fakeVariantAPI{}, testWorkflows(), nil, nil)

	err := engine.Transition(context.Background(), "article", "en", "default", "missing", "")
	require.Error(t, err)

	merr := merrors.AsMigrateError(err)
	require.NotNil(t, merr)
	assert.Equal(t, merrors.CodeWorkflowStepNotFound, merr.Code)
	assert.Contains(t, merr.Why, "draft")
	assert.Contains(t, merr.Why, "published")
}
