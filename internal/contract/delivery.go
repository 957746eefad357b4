package contract

import (
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// DeliveryDate returns the first delivery day for a tenor and its period code:
//
//	day      "2025-07-14"
//	week     "29_25"  week number, weeks start on the first Monday of the year
//	month    "07_25"
//	quarter  "3_25"
//	year     "26"
//
// Two-digit years below 50 are 20xx, the rest 19xx.
func DeliveryDate(tenor types.Tenor, period string) (time.Time, error) {
	switch tenor {
	case types.TenorDay:
		t, err := time.Parse(time.DateOnly, period)
		if err != nil {
			return time.Time{}, invalidPeriod(tenor, period, err)
		}

		return t, nil
	case types.TenorWeek:
		week, year, err := splitPeriod(tenor, period)
		if err != nil {
			return time.Time{}, err
		}

		if week < 1 || week > 53 {
			return time.Time{}, invalidPeriod(tenor, period, nil)
		}

		return firstMonday(year).AddDate(0, 0, (week-1)*7), nil
	case types.TenorMonth:
		month, year, err := splitPeriod(tenor, period)
		if err != nil {
			return time.Time{}, err
		}

		if month < 1 || month > 12 {
			return time.Time{}, invalidPeriod(tenor, period, nil)
		}

		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
	case types.TenorQuarter:
		quarter, year, err := splitPeriod(tenor, period)
		if err != nil {
			return time.Time{}, err
		}

		if quarter < 1 || quarter > 4 {
			return time.Time{}, invalidPeriod(tenor, period, nil)
		}

		return time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC), nil
	case types.TenorYear:
		yy, err := strconv.Atoi(period)
		if err != nil {
			return time.Time{}, invalidPeriod(tenor, period, err)
		}

		return time.Date(expandYear(yy), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, errors.Newf(errors.ErrCodeUnknownTenor, "unknown tenor %q", tenor)
	}
}

// splitPeriod parses "<n>_<yy>" codes.
func splitPeriod(tenor types.Tenor, period string) (int, int, error) {
	head, tail, ok := strings.Cut(period, "_")
	if !ok {
		return 0, 0, invalidPeriod(tenor, period, nil)
	}

	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, 0, invalidPeriod(tenor, period, err)
	}

	yy, err := strconv.Atoi(tail)
	if err != nil || len(tail) != 2 {
		return 0, 0, invalidPeriod(tenor, period, err)
	}

	return n, expandYear(yy), nil
}

func expandYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}

	return 1900 + yy
}

func firstMonday(year int) time.Time {
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}

	return t
}

func invalidPeriod(tenor types.Tenor, period string, cause error) error {
	if cause != nil {
		return errors.Wrapf(errors.ErrCodeInvalidPeriodCode, cause, "invalid %s period code %q", tenor, period)
	}

	return errors.Newf(errors.ErrCodeInvalidPeriodCode, "invalid %s period code %q", tenor, period)
}
