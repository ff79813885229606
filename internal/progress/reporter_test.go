package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportWritesAndCounts(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriter(&buf, false)

	r.Report(ActionCreate, "item", "article")
	r.Report(ActionCreate, "item", "another")
	r.Report(ActionSkip, "asset", "hero")

	assert.Equal(t, 2, r.Count(ActionCreate))
	assert.Equal(t, 1, r.Count(ActionSkip))
	assert.Contains(t, buf.String(), "item: article")
	assert.Contains(t, buf.String(), "asset: hero")
}

func TestQuietCountsWithoutWriting(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriter(&buf, true)

	r.Report(ActionPublish, "variant", "article")

	assert.Equal(t, 1, r.Count(ActionPublish))
	assert.Empty(t, buf.String())
}

func TestSummaryStableOrder(t *testing.T) {
	r := Discard()
	r.Report(ActionSkip, "item", "a")
	r.Report(ActionCreate, "item", "b")
	r.Report(ActionCreate, "item", "c")

	assert.Equal(t, "create: 2\nskip: 1\n", r.Summary())
}

func TestDiscardNeverWrites(t *testing.T) {
	r := Discard()
	r.Report(ActionFetch, "environment", "metadata")
	assert.Equal(t, 1, r.Count(ActionFetch))
}
