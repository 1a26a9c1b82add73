package service

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"voicereminder/internal/model"
	"voicereminder/internal/store"
)

type fakeScheduler struct {
	daily  []string
	once   []string
	runAts []time.Time
	fail   error
}

func (f *fakeScheduler) ScheduleDaily(jobID string, hour, minute int, note string) error {
	if f.fail != nil {
		return f.fail
	}
	f.daily = append(f.daily, jobID)
	return nil
}

func (f *fakeScheduler) ScheduleOnce(jobID string, runAt time.Time, note string) error {
	if f.fail != nil {
		return f.fail
	}
	f.once = append(f.once, jobID)
	f.runAts = append(f.runAts, runAt)
	return nil
}

func newTestService(t *testing.T) (*Service, *store.Store, *fakeScheduler) {
	t.Helper()
	st := store.New()
	sched := &fakeScheduler{}
	svc := New(st, sched, time.UTC, log.New(io.Discard, "", 0))
	return svc, st, sched
}

func TestCreateOneTimeThenDuplicate(t *testing.T) {
	t.Parallel()
	svc, st, sched := newTestService(t)

	id, err := svc.Create("wake up", "2025-01-01", "09:00", false)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}

	if _, err := svc.Create("wake up", "2025-01-01", "09:00", false); !errors.Is(err, model.ErrDuplicateReminder) {
		t.Fatalf("identical request err = %v, want ErrDuplicateReminder", err)
	}
	if st.Len() != 1 {
		t.Fatalf("duplicate mutated the store: len = %d", st.Len())
	}

	id, err = svc.Create("wake up", "2025-01-02", "09:00", false)
	if err != nil {
		t.Fatalf("different date: %v", err)
	}
	if id != 2 {
		t.Fatalf("second id = %d, want 2", id)
	}
	if len(sched.once) != 2 {
		t.Fatalf("expected 2 one-shot registrations, got %d", len(sched.once))
	}
}

func TestCreateDailyNeverConflicts(t *testing.T) {
	t.Parallel()
	svc, st, sched := newTestService(t)

	// Two daily reminders at the identical time both succeed, and neither
	// needs a date. The conflict scan covers non-daily reminders only.
	for want := uint(1); want <= 2; want++ {
		id, err := svc.Create("stretch", "", "07:30", true)
		if err != nil {
			t.Fatalf("daily create %d: %v", want, err)
		}
		if id != want {
			t.Fatalf("daily id = %d, want %d", id, want)
		}
	}

	// A one-time reminder at the same time of day is not blocked by them.
	if _, err := svc.Create("stretch", "2025-03-03", "07:30", false); err != nil {
		t.Fatalf("one-time alongside daily: %v", err)
	}

	if len(sched.daily) != 2 || len(sched.once) != 1 {
		t.Fatalf("registrations: daily=%d once=%d, want 2 and 1", len(sched.daily), len(sched.once))
	}
	if st.Len() != 3 {
		t.Fatalf("store len = %d, want 3", st.Len())
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	cases := map[string]struct {
		date, timeOfDay string
		daily           bool
		want            error
	}{
		"out of range time":   {date: "2025-01-01", timeOfDay: "25:61", want: model.ErrInvalidTimeFormat},
		"not a time":          {date: "2025-01-01", timeOfDay: "soon", want: model.ErrInvalidTimeFormat},
		"empty time":          {date: "2025-01-01", timeOfDay: "", want: model.ErrInvalidTimeFormat},
		"negative minute":     {date: "2025-01-01", timeOfDay: "10:-5", want: model.ErrInvalidTimeFormat},
		"missing date":        {timeOfDay: "09:00", want: model.ErrMissingDate},
		"unparseable date":    {date: "tomorrow", timeOfDay: "09:00", want: model.ErrInvalidDateTimeFormat},
		"daily invalid time":  {timeOfDay: "24:00", daily: true, want: model.ErrInvalidTimeFormat},
		"daily needs no date": {timeOfDay: "09:00", daily: true, want: nil},
	}

	for name, tc := range cases {
		_, err := svc.Create("note", tc.date, tc.timeOfDay, tc.daily)
		if tc.want == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", name, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", name, err, tc.want)
		}
	}
}

func TestCreateAcceptsSingleDigitHour(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService(t)

	id, err := svc.Create("", "2025-01-01", "9:05", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r, ok := st.Get(id)
	if !ok {
		t.Fatalf("record %d not stored", id)
	}
	if r.Hour != 9 || r.Minute != 5 {
		t.Fatalf("stored time = %d:%d, want 9:05", r.Hour, r.Minute)
	}
	if r.Note != model.DefaultNote {
		t.Fatalf("empty note not defaulted: %q", r.Note)
	}
}

func TestCreateRegistrationFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()
	svc, st, sched := newTestService(t)
	sched.fail = errors.New("engine rejected job")

	if _, err := svc.Create("note", "2025-01-01", "09:00", false); err == nil {
		t.Fatalf("expected registration error to surface")
	}
	if st.Len() != 0 {
		t.Fatalf("store mutated despite registration failure: len = %d", st.Len())
	}
}

func TestJobIDsAreUnique(t *testing.T) {
	t.Parallel()
	svc, st, _ := newTestService(t)

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		id, err := svc.Create("tick", "", "12:00", true)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		r, _ := st.Get(id)
		if _, dup := seen[r.JobID]; dup {
			t.Fatalf("duplicate job id %q", r.JobID)
		}
		seen[r.JobID] = struct{}{}
	}
}
