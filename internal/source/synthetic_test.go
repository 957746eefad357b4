package source_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/contract"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/period"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/mocks"
	pkgerrors "github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SyntheticAdapterTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	engine  *mocks.MockSyntheticEngine
	adapter *source.SyntheticAdapter
	legs    []types.ContractSpec
	window  types.DateRange
}

func TestSyntheticAdapterSuite(t *testing.T) {
	suite.Run(t, new(SyntheticAdapterTestSuite))
}

func (suite *SyntheticAdapterTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.engine = mocks.NewMockSyntheticEngine(suite.ctrl)

	opts := source.DefaultOptions()
	opts.Retry.MaxAttempts = 1
	suite.adapter = source.NewSyntheticAdapter(suite.engine, period.NewResolver(3), opts, logger.NewNopLogger())

	legs, err := contract.ParseAll([]string{"debm09_25", "frbm10_25"})
	suite.Require().NoError(err)
	suite.legs = legs
	// July 2025: both legs roll on the 29th
	suite.window = types.NewDateRange(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC))
}

func (suite *SyntheticAdapterTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 7, 2, hour, minute, 0, 0, time.UTC)
}

func (suite *SyntheticAdapterTestSuite) TestPlanIntersectsLegPeriods() {
	plan := suite.adapter.Plan(suite.legs, suite.window)

	suite.Require().Len(plan, 2)
	suite.Equal(types.NewDateRange(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC)), plan[0].Window)
	suite.Equal(2, plan[0].Periods[0].Offset)
	suite.Equal(3, plan[0].Periods[1].Offset)
	suite.Equal(1, plan[1].Periods[0].Offset)
	suite.Equal(2, plan[1].Periods[1].Offset)
}

func (suite *SyntheticAdapterTestSuite) TestFetchConcatenatesSortsAndDedups() {
	first := source.SyntheticTable{
		Orders: []source.SyntheticOrder{
			{Timestamp: at(9, 1), Bid: optional.Some(1.0), Ask: optional.Some(1.2)},
			{Timestamp: at(9, 0), Bid: optional.Some(1.1), Ask: optional.Some(1.3)},
		},
		Trades: []source.SyntheticTrade{
			{Timestamp: at(9, 2), Buy: optional.Some(1.1), Sell: optional.None[float64]()},
		},
	}
	second := source.SyntheticTable{
		Orders: []source.SyntheticOrder{
			{Timestamp: at(9, 1), Bid: optional.Some(1.0), Ask: optional.Some(1.2)},
			{Timestamp: at(10, 0), Bid: optional.Some(1.4), Ask: optional.Some(1.6)},
		},
	}

	gomock.InOrder(
		suite.engine.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, q source.SyntheticQuery) (source.SyntheticTable, error) {
				suite.Require().Len(q.Legs, 2)
				suite.Equal(1.0, q.Legs[0].Coefficient)
				suite.Equal(-1.0, q.Legs[1].Coefficient)
				suite.Equal("fr", q.Legs[1].Market)
				suite.Equal(3, q.TransitionDays)

				return first, nil
			}),
		suite.engine.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(second, nil),
	)

	var calls [][2]int
	opts := source.DefaultOptions()
	opts.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }
	adapter := source.NewSyntheticAdapter(suite.engine, period.NewResolver(3), opts, logger.NewNopLogger())

	got, report, err := adapter.Fetch(context.Background(), suite.legs, nil, suite.window)
	suite.Require().NoError(err)

	suite.Len(got.Orders, 3)
	suite.Equal(at(9, 0), got.Orders[0].Timestamp)
	suite.Equal(at(10, 0), got.Orders[2].Timestamp)
	suite.Len(got.Trades, 1)
	suite.Equal(2, report.Succeeded)
	suite.Equal([][2]int{{1, 2}, {2, 2}}, calls)
}

func (suite *SyntheticAdapterTestSuite) TestFailedSubWindowContributesNoRows() {
	good := source.SyntheticTable{
		Orders: []source.SyntheticOrder{{Timestamp: at(9, 0), Bid: optional.Some(1.0), Ask: optional.Some(1.2)}},
	}

	gomock.InOrder(
		suite.engine.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(source.SyntheticTable{}, errors.New("engine crashed")),
		suite.engine.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(good, nil),
	)

	got, report, err := suite.adapter.Fetch(context.Background(), suite.legs, []float64{1, -1}, suite.window)

	suite.NoError(err)
	suite.Len(got.Orders, 1)
	suite.Require().Len(report.Failures, 1)
	suite.Equal([]int{2, 3}, report.Failures[0].Offsets)
	suite.False(report.Failed())
}

func (suite *SyntheticAdapterTestSuite) TestAllSubWindowsFailing() {
	suite.engine.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).
		Return(source.SyntheticTable{}, errors.New("engine crashed")).
		Times(2)

	got, report, err := suite.adapter.Fetch(context.Background(), suite.legs, nil, suite.window)

	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeSourceUnavailable), "got %v", err)
	suite.Equal(0, got.Len())
	suite.Len(report.Failures, 2)
}

func (suite *SyntheticAdapterTestSuite) TestStopsIssuingQueriesAfterDeadline() {
	ctx, cancel := context.WithCancel(context.Background())

	suite.engine.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, source.SyntheticQuery) (source.SyntheticTable, error) {
			cancel()

			return source.SyntheticTable{
				Orders: []source.SyntheticOrder{{Timestamp: at(9, 0), Bid: optional.Some(1.0), Ask: optional.Some(1.2)}},
			}, nil
		})

	got, report, err := suite.adapter.Fetch(ctx, suite.legs, nil, suite.window)

	suite.NoError(err)
	suite.Len(got.Orders, 1)
	suite.Equal(1, report.Skipped)
}

func (suite *SyntheticAdapterTestSuite) TestNoFuturePeriodsMeansNoQueries() {
	expired, err := contract.ParseAll([]string{"debm06_25", "frbm06_25"})
	suite.Require().NoError(err)

	got, report, err := suite.adapter.Fetch(context.Background(), expired, nil, suite.window)
	suite.NoError(err)
	suite.Equal(0, got.Len())
	suite.Equal(0, report.SubWindows)
}

func (suite *SyntheticAdapterTestSuite) TestRejectsBadInput() {
	_, _, err := suite.adapter.Fetch(context.Background(), suite.legs[:1], nil, suite.window)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeUnsupportedContractCount))

	_, _, err = suite.adapter.Fetch(context.Background(), suite.legs, []float64{1}, suite.window)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeInvalidCoefficients))
}
