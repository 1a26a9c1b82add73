package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Synthesizer converts note text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Scheduler wraps the cron engine and translates reminder registrations
// into scheduled firings of the synthesizer. Firings run on the cron
// goroutine, never on the HTTP request path.
type Scheduler struct {
	cron      *cron.Cron
	synth     Synthesizer
	voiceFile string
	timeout   time.Duration
	logger    *log.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a scheduler firing in the given location and writing each
// synthesis result to voiceFile.
func New(synth Synthesizer, location *time.Location, voiceFile string, timeout time.Duration, logger *log.Logger) *Scheduler {
	c := cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
	)
	return &Scheduler{
		cron:      c,
		synth:     synth,
		voiceFile: voiceFile,
		timeout:   timeout,
		logger:    logger,
		entries:   make(map[string]cron.EntryID),
	}
}

// Start launches the scheduler loop.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for any in-flight firing to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleDaily registers a job firing every day at hour:minute. Any number
// of daily jobs may coexist at the same time of day; they are distinguished
// only by jobID.
func (s *Scheduler) ScheduleDaily(jobID string, hour, minute int, note string) error {
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	entryID, err := s.cron.AddFunc(spec, s.fireFunc(jobID, note))
	if err != nil {
		return fmt.Errorf("schedule daily job %s: %w", jobID, err)
	}
	s.track(jobID, entryID)
	return nil
}

// ScheduleOnce registers a job firing exactly once at runAt. A runAt already
// in the past is accepted but never fires; the engine drops the entry on its
// first scheduling pass.
func (s *Scheduler) ScheduleOnce(jobID string, runAt time.Time, note string) error {
	entryID := s.cron.Schedule(onceSchedule{at: runAt}, cron.FuncJob(s.fireFunc(jobID, note)))
	s.track(jobID, entryID)
	return nil
}

// Entries reports how many jobs are currently registered with the engine.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Registered reports whether jobID has been registered with the engine.
func (s *Scheduler) Registered(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[jobID]
	return ok
}

func (s *Scheduler) track(jobID string, entryID cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jobID] = entryID
}

// fireFunc captures the note by value so the firing path never reads the
// reminder store. Synthesis failures are logged and swallowed; a slow or
// broken synthesis call must not take down other jobs.
func (s *Scheduler) fireFunc(jobID, note string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		audio, err := s.synth.Synthesize(ctx, note)
		if err != nil {
			s.logger.Printf("scheduler: job %s: synthesis failed: %v", jobID, err)
			return
		}
		if err := writeArtifact(s.voiceFile, audio); err != nil {
			s.logger.Printf("scheduler: job %s: write artifact: %v", jobID, err)
			return
		}
		s.logger.Printf("scheduler: job %s: voice prompt generated: %s", jobID, note)
	}
}

// writeArtifact replaces the artifact atomically so a concurrent download
// never sees a torn file. Concurrent firings are last-write-wins.
func writeArtifact(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".voice-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// onceSchedule fires a single time at the stored instant. After that instant
// has passed, Next returns the zero time and the cron engine stops
// scheduling the entry.
type onceSchedule struct {
	at time.Time
}

func (o onceSchedule) Next(t time.Time) time.Time {
	if o.at.After(t) {
		return o.at
	}
	return time.Time{}
}
