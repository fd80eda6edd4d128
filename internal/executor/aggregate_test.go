package executor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/plan"
)

func TestAggregate(t *testing.T) {
	outcomes := []Outcome{
		{Index: 0, Operation: createOp("A", "2025-03-01T10:00:00Z", "2025-03-01T11:00:00Z"), Status: StatusSuccess,
			RemoteID: "a", RemoteLink: "https://cal/a", Event: &calendar.RemoteEvent{ID: "a", Summary: "A (remote)"}},
		{Index: 1, Operation: plan.NewDelete("b"), Status: StatusSuccess, RemoteID: "b"},
		{Index: 2, Operation: plan.NewUpdate("c", plan.PartialEventInput{Title: strPtr("C")}), Status: StatusFailure,
			RemoteID: "c", Error: "Forbidden"},
		{Index: 3, Operation: plan.NewUpdate("d", plan.PartialEventInput{Title: strPtr("D")}), Status: StatusSuccess,
			RemoteID: "d", RemoteLink: "https://cal/d"},
		{Index: 4, Operation: createOp("E", "2025-03-01T10:00:00Z", "2025-03-01T11:00:00Z"), Status: StatusFailure,
			Error: "Invalid"},
	}

	res := Aggregate(outcomes)

	assert.Equal(t, []Entry{{RemoteID: "a", Link: "https://cal/a", Title: "A (remote)"}}, res.Created)
	assert.Equal(t, []Entry{{RemoteID: "d", Link: "https://cal/d", Title: "D"}}, res.Updated)
	assert.Equal(t, []Entry{{RemoteID: "b"}}, res.Deleted)
	assert.Equal(t, []ErrorEntry{
		{Action: plan.KindUpdate, RemoteID: "c", Message: "Forbidden"},
		{Action: plan.KindCreate, Message: "Invalid"},
	}, res.Errors)
	assert.Equal(t, len(outcomes), res.Total())
}

func TestAggregate_EmptyEncodesAsArrays(t *testing.T) {
	data, err := json.Marshal(Aggregate(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"created":[],"updated":[],"deleted":[],"errors":[]}`, string(data))
}

func TestAggregate_IsPure(t *testing.T) {
	outcomes := []Outcome{{Index: 0, Operation: plan.NewDelete("x"), Status: StatusSuccess, RemoteID: "x"}}
	assert.Equal(t, Aggregate(outcomes), Aggregate(outcomes))
	assert.Equal(t, "x", outcomes[0].RemoteID)
}
