package datarights_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    datarights.Status
		to      datarights.Status
		allowed bool
	}{
		{datarights.StatusPending, datarights.StatusProcessing, true},
		{datarights.StatusPending, datarights.StatusRejected, true},
		{datarights.StatusPending, datarights.StatusCancelled, true},
		{datarights.StatusPending, datarights.StatusCompleted, false},
		{datarights.StatusProcessing, datarights.StatusCompleted, true},
		{datarights.StatusProcessing, datarights.StatusRejected, true},
		{datarights.StatusProcessing, datarights.StatusCancelled, false},
		{datarights.StatusProcessing, datarights.StatusPending, false},
		{datarights.StatusCompleted, datarights.StatusProcessing, false},
		{datarights.StatusRejected, datarights.StatusPending, false},
		{datarights.StatusCancelled, datarights.StatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, datarights.StatusPending.Terminal())
	assert.False(t, datarights.StatusProcessing.Terminal())
	assert.True(t, datarights.StatusCompleted.Terminal())
	assert.True(t, datarights.StatusRejected.Terminal())
	assert.True(t, datarights.StatusCancelled.Terminal())
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range datarights.Categories {
		assert.True(t, c.Valid(), "category %s should be valid", c)
	}
	assert.False(t, datarights.Category("biometrics").Valid())
	assert.False(t, datarights.Category("").Valid())
}

func TestRequest_Overdue(t *testing.T) {
	submitted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	deadline := submitted.Add(datarights.ResponseWindow)

	req := &datarights.Request{
		Status:      datarights.StatusPending,
		SubmittedAt: submitted,
		Deadline:    deadline,
	}

	assert.False(t, req.Overdue(deadline.Add(-time.Hour)))
	assert.False(t, req.Overdue(deadline), "deadline itself is not overdue")
	assert.True(t, req.Overdue(deadline.Add(time.Hour)))

	// Terminal requests never show up as overdue.
	req.Status = datarights.StatusCompleted
	assert.False(t, req.Overdue(deadline.Add(time.Hour)))
}
