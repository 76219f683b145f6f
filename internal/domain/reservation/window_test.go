//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"alumni-reserve/internal/domain/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindow(t *testing.T, start, end time.Time) reservation.TimeWindow {
	t.Helper()
	w, err := reservation.NewTimeWindow(start, end)
	require.NoError(t, err)
	return w
}

func TestTimeWindow(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	hour := time.Hour

	t.Run("start must precede end", func(t *testing.T) {
		_, err := reservation.NewTimeWindow(base, base)
		require.ErrorIs(t, err, reservation.ErrInvalidWindow)

		_, err = reservation.NewTimeWindow(base.Add(hour), base)
		require.ErrorIs(t, err, reservation.ErrInvalidWindow)
	})

	t.Run("overlap is half-open", func(t *testing.T) {
		a := mustWindow(t, base, base.Add(2*hour))

		cases := []struct {
			name  string
			other reservation.TimeWindow
			want  bool
		}{
			{"identical windows", mustWindow(t, base, base.Add(2*hour)), true},
			{"contained window", mustWindow(t, base.Add(30*time.Minute), base.Add(hour)), true},
			{"partial overlap at the front", mustWindow(t, base.Add(-hour), base.Add(30*time.Minute)), true},
			{"partial overlap at the back", mustWindow(t, base.Add(90*time.Minute), base.Add(3*hour)), true},
			{"back-to-back after", mustWindow(t, base.Add(2*hour), base.Add(3*hour)), false},
			{"back-to-back before", mustWindow(t, base.Add(-hour), base), false},
			{"disjoint", mustWindow(t, base.Add(5*hour), base.Add(6*hour)), false},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				assert.Equal(t, c.want, a.Overlaps(c.other))
				assert.Equal(t, c.want, c.other.Overlaps(a))
			})
		}
	})
}
