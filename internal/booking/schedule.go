package booking

import (
	"context"
	"fmt"
	"time"
)

// Administrator operations on the weekly template and blocked dates.

func (s *Service) ListRules(ctx context.Context) ([]ScheduleSlotRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

func (s *Service) CreateRule(ctx context.Context, weekday time.Weekday, clock string, online, offline bool) (*ScheduleSlotRule, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, fmt.Errorf("invalid weekday %d", weekday)
	}

	rule, err := s.repo.CreateRule(ctx, ScheduleSlotRule{
		Weekday:        weekday,
		TimeOfDay:      clock,
		OnlineAllowed:  online,
		OfflineAllowed: offline,
		Active:         true,
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule toggles a rule's mode flags and active state. Rules are never
// deleted so historical appointments keep a configured slot behind them.
func (s *Service) UpdateRule(ctx context.Context, id int64, online, offline, active bool) (*ScheduleSlotRule, error) {
	rule, err := s.repo.UpdateRule(ctx, ScheduleSlotRule{
		ID:             id,
		OnlineAllowed:  online,
		OfflineAllowed: offline,
		Active:         active,
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) ListBlockedDates(ctx context.Context) ([]BlockedDate, error) {
	from := DateOnly(s.now(), s.loc)
	dates, err := s.repo.ListBlockedDates(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("list blocked dates: %w", err)
	}
	return dates, nil
}

func (s *Service) BlockDate(ctx context.Context, date time.Time, reason *string) (*BlockedDate, error) {
	blocked, err := s.repo.CreateBlockedDate(ctx, DateOnly(date, s.loc), reason)
	if err != nil {
		return nil, err
	}
	return blocked, nil
}

func (s *Service) UnblockDate(ctx context.Context, id int64) error {
	return s.repo.DeleteBlockedDate(ctx, id)
}
