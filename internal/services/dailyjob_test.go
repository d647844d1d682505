package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"go.uber.org/goleak"
)

func TestNextMidnight(t *testing.T) {
	j := NewDailyJob(nil, zerolog.Nop())

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC),
			time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			// Exactly midnight schedules the next day, never "now".
			time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			// Month rollover.
			time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC),
			time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		j.now = func() time.Time { return tc.now }
		if got := j.nextMidnight(); !got.Equal(tc.want) {
			t.Fatalf("nextMidnight(%v) = %v; want %v", tc.now, got, tc.want)
		}
	}
}

func TestDailyJob_StartStopLifecycle(t *testing.T) {
	articles, _ := newArticleService(t)
	j := NewDailyJob(NewGenerator(articles, nil, zerolog.Nop()), zerolog.Nop())

	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	j.Start()
	j.Start() // no-op
	j.Stop()
	j.Stop() // safe to repeat
}

func TestDailyJob_StopWithoutStart(t *testing.T) {
	j := NewDailyJob(nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a job that was never started")
	}
}
