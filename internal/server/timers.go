package server

import (
	"errors"
	"math"
	"time"

	"event-match/internal/broker"
	"event-match/internal/countdown"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func countdownPayload(event Event, now time.Time) gin.H {
	payload := gin.H{
		"eventCode":         event.Code,
		"phase":             event.Phase,
		"countdownDuration": event.CountdownDuration,
	}
	if event.StartTime != nil {
		payload["startTime"] = event.StartTime.UTC()
	}
	if event.TargetTime != nil {
		payload["targetTime"] = event.TargetTime.UTC()
		remaining := countdown.Remaining(*event.TargetTime, now)
		payload["remainingSeconds"] = int(math.Ceil(remaining.Seconds()))
	}
	return payload
}

// startCountdown moves a lobby event into its countdown. A zero duration keeps
// the event's own; anything else must be within the configured bounds.
func (s *Server) startCountdown(code, userID string, duration int) (Event, error) {
	now := s.clock.Now().UTC()
	event, err := s.updateEvent(code, func(e *Event) error {
		if e.HostUserID != userID {
			return errNotHost
		}
		if e.Phase == phaseRevealed {
			return errEventRevealed
		}
		if !canTransition(e.Phase, phaseCountdown) {
			return errCountdownStarted
		}
		if duration != 0 {
			if err := validateDuration(duration, s.cfg.CountdownMinSeconds, s.cfg.CountdownMaxSeconds); err != nil {
				return err
			}
			e.CountdownDuration = duration
		}
		start := now
		target := countdown.TargetTime(start, e.CountdownDuration)
		e.StartTime = &start
		e.TargetTime = &target
		e.Phase = phaseCountdown
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	if err := s.persistEvent(event, "countdown_started", ActivityPayload{
		EventCode: event.Code,
		Phase:     event.Phase,
		Duration:  event.CountdownDuration,
	}); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist countdown start failed")
	}
	log.Info().Str("event_code", event.Code).Int("duration", event.CountdownDuration).Msg("countdown started")
	s.scheduleCountdown(event)
	s.notify(event.Code, eventRoom(event.Code), "countdown-update", countdownPayload(event, now), broker.TypeCountdownStarted)
	return event, nil
}

func (s *Server) scheduleCountdown(event Event) {
	if event.TargetTime == nil {
		return
	}
	code := event.Code
	tick := time.Duration(s.cfg.CountdownTickSeconds) * time.Second
	s.timers.Start(code, *event.TargetTime, tick, countdown.Handlers{
		OnTick: func(time.Duration) {
			s.notify(code, eventRoom(code), "countdown-update", countdownPayload(event, s.clock.Now()), broker.TypeCountdownTick)
		},
		OnComplete: func() {
			s.completeCountdown(code)
		},
	})
}

func (s *Server) completeCountdown(code string) {
	event, err := s.store.UpdateEvent(code, func(e *Event) error {
		if e.Phase != phaseCountdown {
			return errors.New("countdown not running")
		}
		e.Phase = phaseVoting
		return nil
	})
	if err != nil {
		return
	}
	if err := s.persistEvent(event, "countdown_complete", ActivityPayload{
		EventCode: event.Code,
		Phase:     event.Phase,
		Reason:    "timeout",
	}); err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("persist countdown complete failed")
	}
	log.Info().Str("event_code", event.Code).Msg("countdown complete")
	s.notify(event.Code, eventRoom(event.Code), "countdown-complete", gin.H{
		"eventCode": event.Code,
		"phase":     event.Phase,
	}, broker.TypeCountdownComplete)
}
