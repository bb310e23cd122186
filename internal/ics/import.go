package ics

import (
	"context"
	"fmt"
	"time"

	"cloudeng.io/errors"

	"jalaliflow/internal/holiday"
	"jalaliflow/internal/jalali"
	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/model"
)

// ImportOccurrences adds occurrences to reg as custom holidays and returns
// how many were added. Dates that already carry a holiday keep their
// description. An empty summary falls back to fallback.
func ImportOccurrences(reg *holiday.Registry, occs []model.Occurrence, fallback string) (int, error) {
	added := 0
	errs := errors.M{}
	for _, occ := range occs {
		d := jalali.FromTime(occ.Start)
		if !jalali.ValidDate(d) {
			continue
		}
		key := d.JalaliString()
		if _, ok := reg.Describe(key); ok {
			continue
		}
		desc := occ.Summary
		if desc == "" {
			desc = fallback
		}
		if err := reg.AddCustomHoliday(key, desc); err != nil {
			errs.Append(fmt.Errorf("%s %s: %w", occ.UID, occ.InstanceKey, err))
			continue
		}
		added++
	}
	return added, errs.Err()
}

// SyncFeeds fetches every source, expands its events over the given Jalali
// years and imports the result into reg. A failing feed does not stop the
// others; the returned error aggregates all failures.
func SyncFeeds(ctx context.Context, f *Fetcher, sources []Source, reg *holiday.Registry, loc *time.Location, years ...int) (int, error) {
	errs := errors.M{}
	results, err := f.FetchAll(ctx, sources)
	errs.Append(err)

	total := 0
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			errs.Append(fmt.Errorf("feed %s: %w", res.Source.ID, err))
			continue
		}
		fallback := res.Source.Name
		if fallback == "" {
			fallback = res.Source.ID
		}
		for _, year := range years {
			cfg, err := JalaliYearRange(year, loc)
			if err != nil {
				errs.Append(err)
				continue
			}
			occs, err := ExpandOccurrences(events, cfg)
			if err != nil {
				errs.Append(err)
				continue
			}
			n, err := ImportOccurrences(reg, occs, fallback)
			errs.Append(err)
			total += n
		}
		appLog.Info("holiday feed imported", "id", res.Source.ID, "from_cache", res.FromCache, "events", len(events))
	}
	return total, errs.Err()
}
