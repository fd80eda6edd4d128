package plan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		wantForm Form
		wantErr  bool
	}{
		{"2025-03-04T10:00:00Z", FormInstant, false},
		{"2025-03-04T10:00:00.250+02:00", FormInstant, false},
		{"2025-03-04T10:00:00", FormLocal, false},
		{"2025-03-04T10:00", FormLocal, false},
		{"2025-03-04", FormDate, false},
		{"", 0, true},
		{"04/03/2025", 0, true},
		{"next tuesday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantForm, ts.Form)
			assert.Equal(t, tt.input, ts.Raw)
		})
	}
}

func TestTimestamp_String(t *testing.T) {
	assert.Equal(t, "2025-03-04", MustParseTimestamp("2025-03-04").String())
	assert.Equal(t, "2025-03-04T10:00:00", MustParseTimestamp("2025-03-04T10:00").String())
	assert.Equal(t, "2025-03-04T10:00:00+02:00", MustParseTimestamp("2025-03-04T10:00:00+02:00").String())
}

func TestTimestamp_OrderingAcrossOffsets(t *testing.T) {
	// 10:00+02:00 is 08:00Z, so it is before 09:00Z.
	a := MustParseTimestamp("2025-03-04T10:00:00+02:00")
	b := MustParseTimestamp("2025-03-04T09:00:00Z")
	assert.True(t, a.Before(b, nil))
	assert.Equal(t, time.Hour, b.Time.Sub(a.Time))
}

func TestTimestamp_In(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	local := MustParseTimestamp("2025-03-01T09:30:00")
	assert.True(t, local.In(nil).Equal(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))
	assert.True(t, local.In(berlin).Equal(time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)))

	instant := MustParseTimestamp("2025-03-01T10:00:00+01:00")
	assert.True(t, instant.In(berlin).Equal(instant.Time), "instants keep their offset")

	// 10:00+01:00 is 09:00Z; 09:30 Berlin wall clock is 08:30Z.
	assert.False(t, instant.Before(local, berlin))
	assert.True(t, instant.Before(local, time.UTC))
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-04T10:00:00Z"`), &ts))
	assert.Equal(t, FormInstant, ts.Form)

	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &ts))
}
