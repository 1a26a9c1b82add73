package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"voicereminder/internal/model"
	"voicereminder/internal/store"
)

// JobScheduler registers reminder firings with the scheduling engine.
type JobScheduler interface {
	ScheduleDaily(jobID string, hour, minute int, note string) error
	ScheduleOnce(jobID string, runAt time.Time, note string) error
}

// Service holds the business rules for reminder creation. It is the only
// component that talks to both the store and the scheduler.
type Service struct {
	store     *store.Store
	scheduler JobScheduler
	location  *time.Location
	logger    *log.Logger
	now       func() time.Time
}

// New creates a reminder service resolving dates in the given location.
func New(st *store.Store, sched JobScheduler, location *time.Location, logger *log.Logger) *Service {
	return &Service{
		store:     st,
		scheduler: sched,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the request, rejects duplicates, registers the job, and
// stores the record. The store is only mutated after the scheduler has
// accepted the registration.
func (s *Service) Create(note, date, timeOfDay string, daily bool) (uint, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return 0, err
	}

	if strings.TrimSpace(note) == "" {
		note = model.DefaultNote
	}

	var runAt time.Time
	if !daily {
		if strings.TrimSpace(date) == "" {
			return 0, model.ErrMissingDate
		}
		runAt, err = time.ParseInLocation("2006-01-02 15:04",
			fmt.Sprintf("%s %02d:%02d", date, hour, minute), s.location)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", model.ErrInvalidDateTimeFormat, err)
		}
		if id, found := s.store.FindConflict(runAt); found {
			s.logger.Printf("service: duplicate of reminder %d at %s", id, runAt.Format("2006-01-02 15:04"))
			return 0, model.ErrDuplicateReminder
		}
	}

	jobID := fmt.Sprintf("reminder_%d_%d_%d", hour, minute, s.now().UnixNano())

	if daily {
		err = s.scheduler.ScheduleDaily(jobID, hour, minute, note)
	} else {
		err = s.scheduler.ScheduleOnce(jobID, runAt, note)
	}
	if err != nil {
		return 0, err
	}

	id := s.store.Insert(&model.Reminder{
		Note:      note,
		Hour:      hour,
		Minute:    minute,
		RunAt:     runAt,
		Daily:     daily,
		JobID:     jobID,
		CreatedAt: s.now(),
	})
	s.logger.Printf("service: reminder %d scheduled (job %s, daily=%t)", id, jobID, daily)
	return id, nil
}

// Get returns the stored reminder for id, if any.
func (s *Service) Get(id uint) (*model.Reminder, bool) {
	return s.store.Get(id)
}

// parseTimeOfDay splits "HH:MM" and range-checks both parts. Single-digit
// hours ("9:00") are accepted, out-of-range values ("25:61") are not.
func parseTimeOfDay(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, model.ErrInvalidTimeFormat
	}
	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, model.ErrInvalidTimeFormat
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, model.ErrInvalidTimeFormat
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, model.ErrInvalidTimeFormat
	}
	return hour, minute, nil
}
