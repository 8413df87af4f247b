package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/domain"
)

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, domain.JobPending.Terminal())
	assert.False(t, domain.JobQueued.Terminal())
	assert.False(t, domain.JobRunning.Terminal())
	assert.True(t, domain.JobCompleted.Terminal())
	assert.True(t, domain.JobFailed.Terminal())
	assert.True(t, domain.JobCancelled.Terminal())
}

func TestJobStatus_Retryable(t *testing.T) {
	assert.True(t, domain.JobFailed.Retryable())
	assert.False(t, domain.JobCompleted.Retryable())
	assert.False(t, domain.JobCancelled.Retryable())
	assert.False(t, domain.JobRunning.Retryable())
}

func TestImportSummary_Consistent(t *testing.T) {
	s := domain.ImportSummary{Total: 5, Created: 2, Updated: 1, Skipped: 1}
	assert.False(t, s.Consistent())

	s.AddError(4, "missing name")
	assert.True(t, s.Consistent())
	require.Len(t, s.Errors, 1)
	assert.Equal(t, 4, s.Errors[0].Index)
	assert.Equal(t, "missing name", s.Errors[0].Message)
}

func TestStageList_ValueScan(t *testing.T) {
	stages := domain.StageList{
		{Name: domain.EntityAccounts, Status: domain.StageCompleted, Progress: 100},
		{Name: domain.EntityAssets, Status: domain.StagePending},
	}

	v, err := stages.Value()
	require.NoError(t, err)

	var got domain.StageList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, stages, got)
}

func TestStageList_ValueNilEncodesEmptyArray(t *testing.T) {
	var stages domain.StageList
	v, err := stages.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var got domain.StageList
	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)
}

func TestValidationError_Message(t *testing.T) {
	err := domain.NewValidationError("no domain column", "no name column")
	assert.Equal(t, "validation failed: no domain column; no name column", err.Error())
}
