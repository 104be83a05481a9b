package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-01-09 20:00 UTC is already the 10th in Tokyo.
	instant := time.Date(2024, 1, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-09", Key(instant))
	assert.Equal(t, "2024-01-10", Key(instant.In(tokyo)))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"2024-01-10", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-1-10", false},
		{"2024-01-10T00:00:00Z", false},
		{"yesterday", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.valid, Valid(tt.in))
		})
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2024-03-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)

	got, err = AddDays("2023-12-31", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got)

	_, err = AddDays("nope", 1)
	assert.Error(t, err)
}

func TestYesterdayAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Spring-forward day: 2024-03-10 has only 23 hours in New York.
	now := time.Date(2024, 3, 11, 0, 30, 0, 0, ny)
	assert.Equal(t, "2024-03-10", Yesterday(now))
}

func TestLastDays(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{
		"2023-12-28", "2023-12-29", "2023-12-30", "2023-12-31", "2024-01-01", "2024-01-02",
	}, LastDays(now, 6))
	assert.Empty(t, LastDays(now, 0))
}
