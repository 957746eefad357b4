package period

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/contract"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/stretchr/testify/suite"
)

type ResolverTestSuite struct {
	suite.Suite
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func (suite *ResolverTestSuite) mustParse(code string) types.ContractSpec {
	spec, err := contract.Parse(code)
	suite.Require().NoError(err)

	return spec
}

func (suite *ResolverTestSuite) TestMonthlyEarlyAndLate() {
	// 2025-07-31 is a Thursday, so the last three business days are 29, 30, 31.
	spec := suite.mustParse("debm09_25")
	periods := NewResolver(3).Resolve(spec, types.NewDateRange(d(2025, 7, 1), d(2025, 7, 31)))

	suite.Require().Len(periods, 2)
	suite.Equal(2, periods[0].Offset)
	suite.Equal(types.NewDateRange(d(2025, 7, 1), d(2025, 7, 28)), periods[0].Window)
	suite.Equal("M+2", periods[0].Label())
	suite.Equal(1, periods[1].Offset)
	suite.Equal(types.NewDateRange(d(2025, 7, 29), d(2025, 7, 31)), periods[1].Window)
}

func (suite *ResolverTestSuite) TestWeekendMonthEnd() {
	// 2025-08-31 is a Sunday; last business day is Friday 29th.
	spec := suite.mustParse("debm10_25")
	periods := NewResolver(3).Segments(spec, types.NewDateRange(d(2025, 8, 1), d(2025, 8, 31)))

	suite.Require().Len(periods, 2)
	suite.Equal(types.NewDateRange(d(2025, 8, 1), d(2025, 8, 26)), periods[0].Window)
	suite.Equal(types.NewDateRange(d(2025, 8, 27), d(2025, 8, 31)), periods[1].Window)
}

func (suite *ResolverTestSuite) TestQuarterlyStraddleYieldsTwoPeriods() {
	// Q2 2025 ends Monday 30 June; the transition starts Thursday 26 June.
	spec := suite.mustParse("debq4_25")
	periods := NewResolver(3).Resolve(spec, types.NewDateRange(d(2025, 6, 20), d(2025, 7, 10)))

	suite.Require().Len(periods, 2)
	suite.Equal(2, periods[0].Offset)
	suite.Equal(types.TenorQuarter, periods[0].Unit)
	suite.Equal(types.NewDateRange(d(2025, 6, 20), d(2025, 6, 25)), periods[0].Window)
	suite.Equal(1, periods[1].Offset)
	suite.Equal(types.NewDateRange(d(2025, 6, 26), d(2025, 7, 10)), periods[1].Window)
	suite.Equal("Q+1", periods[1].Label())
}

func (suite *ResolverTestSuite) TestNonPositiveOffsetsAreDropped() {
	spec := suite.mustParse("debm07_25")
	periods := NewResolver(3).Resolve(spec, types.NewDateRange(d(2025, 6, 1), d(2025, 7, 31)))

	suite.Require().Len(periods, 1)
	suite.Equal(1, periods[0].Offset)
	// 2025-06-30 is a Monday: transition covers 26, 27, 30 June.
	suite.Equal(types.NewDateRange(d(2025, 6, 1), d(2025, 6, 25)), periods[0].Window)
}

func (suite *ResolverTestSuite) TestTransitionDaysEdges() {
	spec := suite.mustParse("debm09_25")
	window := types.NewDateRange(d(2025, 7, 1), d(2025, 7, 31))

	suite.Run("disabled", func() {
		for _, n := range []int{0, -2} {
			periods := NewResolver(n).Resolve(spec, window)
			suite.Require().Len(periods, 1)
			suite.Equal(2, periods[0].Offset)
			suite.Equal(window, periods[0].Window)
		}
	})

	suite.Run("clamped to whole month", func() {
		periods := NewResolver(100).Segments(spec, window)
		suite.Require().Len(periods, 1)
		suite.Equal(1, periods[0].Offset)
		suite.Equal(window, periods[0].Window)
	})

	suite.Run("exactly the month", func() {
		// July 2025 has 23 business days.
		periods := NewResolver(23).Segments(spec, window)
		suite.Require().Len(periods, 1)
		suite.Equal(1, periods[0].Offset)
	})

	suite.Run("one business day", func() {
		periods := NewResolver(1).Segments(spec, window)
		suite.Require().Len(periods, 2)
		suite.Equal(d(2025, 7, 31), periods[1].Window.Start)
	})
}

func (suite *ResolverTestSuite) TestGenericTenorsCountInMonths() {
	spec := suite.mustParse("deby26")
	periods := NewResolver(3).Resolve(spec, types.NewDateRange(d(2025, 7, 1), d(2025, 7, 10)))

	suite.Require().Len(periods, 1)
	suite.Equal(types.TenorMonth, periods[0].Unit)
	suite.Equal(6, periods[0].Offset)
}

func (suite *ResolverTestSuite) TestEmptyWindow() {
	spec := suite.mustParse("debm09_25")
	suite.Empty(NewResolver(3).Segments(spec, types.DateRange{Start: d(2025, 7, 2), End: d(2025, 7, 2)}))
}

func (suite *ResolverTestSuite) TestSegmentsCoverWindowExactly() {
	rng := rand.New(rand.NewSource(42))
	codes := []string{"debm09_25", "debq1_26", "deby27", "ttfbm03_24", "debw10_26"}
	base := d(2023, 1, 1)

	for i := 0; i < 300; i++ {
		spec := suite.mustParse(codes[i%len(codes)])
		start := base.AddDate(0, 0, rng.Intn(1000))
		end := start.AddDate(0, 0, rng.Intn(200))
		window := types.NewDateRange(start, end)
		resolver := NewResolver(rng.Intn(30) - 5)

		segments := resolver.Segments(spec, window)
		suite.Require().NotEmpty(segments)
		suite.Equal(window.Start, segments[0].Window.Start)
		suite.Equal(window.End, segments[len(segments)-1].Window.End)

		for j, s := range segments {
			suite.False(s.Window.IsEmpty())
			if j > 0 {
				suite.Equal(segments[j-1].Window.End, s.Window.Start, "gap or overlap in %s", window)
			}
		}

		resolved := resolver.Resolve(spec, window)
		for j, p := range resolved {
			suite.Greater(p.Offset, 0)
			if j > 0 {
				suite.False(p.Window.Start.Before(resolved[j-1].Window.End))
			}
		}
	}
}

func (suite *ResolverTestSuite) TestAtMostTwoSegmentsPerMonth() {
	spec := suite.mustParse("debm12_26")
	segments := NewResolver(3).Segments(spec, types.NewDateRange(d(2025, 1, 1), d(2025, 12, 31)))

	perMonth := map[time.Month]int{}
	for _, s := range segments {
		perMonth[s.Window.Start.Month()]++
	}

	suite.Len(perMonth, 12)
	for month, n := range perMonth {
		suite.Equal(2, n, month.String())
	}
}
