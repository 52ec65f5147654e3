package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "18:00", want: "18:00"},
		{in: "09:05", want: "09:05"},
		{in: "9:05", want: "09:05"},
		{in: "18:30:45", want: "18:30"},
		{in: " 07:15 ", want: "07:15"},
		{in: "00:00", want: "00:00"},
		{in: "23:59", want: "23:59"},
		{in: "24:00", wantErr: true},
		{in: "18:60", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "18", wantErr: true},
		{in: "18:0", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
		{in: "18:00:61", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTimeFormat), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d)

	for _, bad := range []string{"2024-13-01", "2024-02-30", "01/06/2024", ""} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, bad)
	}
}

func TestResolveWindow(t *testing.T) {
	r := NewTimeWindowResolver(2 * time.Hour)

	t.Run("explicit end is kept verbatim", func(t *testing.T) {
		w, err := r.Resolve("18:00", strPtr("21:15"))
		require.NoError(t, err)
		assert.Equal(t, "18:00-21:15", w.String())
	})

	t.Run("missing end uses default duration", func(t *testing.T) {
		w, err := r.Resolve("18:00", nil)
		require.NoError(t, err)
		assert.Equal(t, "18:00", w.Start.String())
		assert.Equal(t, "20:00", w.End.String())
	})

	t.Run("blank end counts as missing", func(t *testing.T) {
		w, err := r.Resolve("12:30", strPtr(" "))
		require.NoError(t, err)
		assert.Equal(t, "14:30", w.End.String())
	})

	t.Run("default end is capped at end of day", func(t *testing.T) {
		w, err := r.Resolve("23:00", nil)
		require.NoError(t, err)
		assert.Equal(t, EndOfDay, w.End)
		assert.Equal(t, "24:00", w.End.String())
	})

	t.Run("explicit 24:00 end is allowed", func(t *testing.T) {
		w, err := r.Resolve("22:00", strPtr("24:00"))
		require.NoError(t, err)
		assert.Equal(t, EndOfDay, w.End)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := r.Resolve("20:00", strPtr("18:00"))
		assert.ErrorIs(t, err, ErrInvalidTimeFormat)
		_, err = r.Resolve("20:00", strPtr("20:00"))
		assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	})

	t.Run("configured duration is honoured", func(t *testing.T) {
		w, err := NewTimeWindowResolver(90*time.Minute).Resolve("19:00", nil)
		require.NoError(t, err)
		assert.Equal(t, "20:30", w.End.String())
	})

	t.Run("zero duration falls back to the default", func(t *testing.T) {
		w, err := TimeWindowResolver{}.Resolve("10:00", nil)
		require.NoError(t, err)
		assert.Equal(t, "12:00", w.End.String())
	})
}

func TestTimeWindowOverlaps(t *testing.T) {
	mk := func(s, e string) TimeWindow {
		w, err := NewTimeWindowResolver(0).Resolve(s, &e)
		require.NoError(t, err)
		return w
	}

	base := mk("18:00", "20:00")
	assert.True(t, base.Overlaps(mk("19:00", "21:00")))
	assert.True(t, base.Overlaps(mk("17:00", "18:01")))
	assert.True(t, base.Overlaps(mk("18:30", "19:00")))
	assert.True(t, base.Overlaps(mk("17:00", "22:00")))
	assert.False(t, base.Overlaps(mk("20:00", "22:00")), "touching at the end")
	assert.False(t, base.Overlaps(mk("16:00", "18:00")), "touching at the start")
	assert.False(t, base.Overlaps(mk("21:00", "22:00")))
}
