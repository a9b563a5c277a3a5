// Package heartbeat runs the periodic MQTT heartbeat on a cron schedule.
package heartbeat

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler calls a beat function on a cron schedule.
type Scheduler struct {
	engine *cron.Cron
	spec   string
	log    logrus.FieldLogger
}

// New validates spec (standard five-field cron or a descriptor such as
// "@every 15m") and registers beat. The schedule does not run until Start.
func New(spec string, beat func(), log logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		engine: cron.New(cron.WithLocation(time.Local)),
		spec:   spec,
		log:    log,
	}
	_, err := s.engine.AddFunc(spec, func() {
		s.log.WithField("spec", spec).Debug("heartbeat")
		beat()
	})
	if err != nil {
		return nil, fmt.Errorf("heartbeat schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.engine.Start()
	s.log.WithField("spec", s.spec).Info("heartbeat scheduler started")
}

// Stop halts the schedule and waits for a running beat to finish.
func (s *Scheduler) Stop() {
	<-s.engine.Stop().Done()
	s.log.Info("heartbeat scheduler stopped")
}
