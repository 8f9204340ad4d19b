package utils

import "time"

// DeltaTimer measures the time between successive calls to Next and keeps
// a smoothed average of it.
type DeltaTimer struct {
	time.Time
	average time.Duration
}

// smoothing is the weight of the newest interval in Average.
const smoothing = 0.1

func (d *DeltaTimer) Next() time.Duration {
	return d.NextAt(time.Now())
}

// NextAt is Next with an explicit timestamp. The first call returns 0.
func (d *DeltaTimer) NextAt(now time.Time) time.Duration {
	defer d.Set(now)
	if d.IsZero() {
		return 0
	}
	dt := now.Sub(d.Time)
	if d.average == 0 {
		d.average = dt
	} else {
		d.average += time.Duration(smoothing * float64(dt-d.average))
	}
	return dt
}

func (d *DeltaTimer) Set(t time.Time) {
	d.Time = t
}

// Average is the smoothed interval, 0 before two calls to Next.
func (d *DeltaTimer) Average() time.Duration {
	return d.average
}
