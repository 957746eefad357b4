package source_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/contract"
	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/mocks"
	pkgerrors "github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PrimaryAdapterTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	engine *mocks.MockPrimaryEngine
	opts   source.Options
}

func TestPrimaryAdapterSuite(t *testing.T) {
	suite.Run(t, new(PrimaryAdapterTestSuite))
}

func (suite *PrimaryAdapterTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.engine = mocks.NewMockPrimaryEngine(suite.ctrl)
	suite.opts = source.DefaultOptions()
	suite.opts.Retry.InitialInterval = time.Millisecond
	suite.opts.Retry.MaxInterval = time.Millisecond
}

func (suite *PrimaryAdapterTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *PrimaryAdapterTestSuite) legs(codes ...string) []types.ContractSpec {
	specs, err := contract.ParseAll(codes)
	suite.Require().NoError(err)

	return specs
}

func (suite *PrimaryAdapterTestSuite) window() types.DateRange {
	return types.NewDateRange(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC))
}

func (suite *PrimaryAdapterTestSuite) TestFetchSpread() {
	ts := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	table := source.PrimaryTable{
		Orders: []source.PrimaryOrder{{Timestamp: ts, BidBestPrice: optional.Some(10.0), AskBestPrice: optional.Some(11.0)}},
		Trades: []source.PrimaryTrade{{Timestamp: ts, Price: 10.5, Volume: 2, Side: 1, BrokerID: 4, Count: 1, TradeID: "t1"}},
	}

	suite.engine.EXPECT().
		FetchPrimary(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q source.PrimaryQuery) (source.PrimaryTable, error) {
			suite.Equal("de", q.Market)
			suite.Len(q.Legs, 2)
			suite.Equal(suite.window(), q.Window)

			return table, nil
		})

	adapter := source.NewPrimaryAdapter(suite.engine, suite.opts, logger.NewNopLogger())
	got, report, err := adapter.Fetch(context.Background(), suite.legs("debm08_25", "debm09_25"), suite.window())

	suite.NoError(err)
	suite.Equal(table, got)
	suite.Equal(1, report.Succeeded)
	suite.Equal(1, report.Orders)
	suite.Equal(1, report.Trades)
	suite.False(report.Failed())
}

func (suite *PrimaryAdapterTestSuite) TestCrossMarketUsesCombinedCode() {
	suite.engine.EXPECT().
		FetchPrimary(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q source.PrimaryQuery) (source.PrimaryTable, error) {
			suite.Equal("de_ttf", q.Market)

			return source.PrimaryTable{}, nil
		})

	adapter := source.NewPrimaryAdapter(suite.engine, suite.opts, logger.NewNopLogger())
	_, _, err := adapter.Fetch(context.Background(), suite.legs("debm08_25", "ttfbm08_25"), suite.window())
	suite.NoError(err)
}

func (suite *PrimaryAdapterTestSuite) TestRetriesThenSucceeds() {
	gomock.InOrder(
		suite.engine.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(source.PrimaryTable{}, errors.New("connection reset")),
		suite.engine.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(source.PrimaryTable{}, nil),
	)

	adapter := source.NewPrimaryAdapter(suite.engine, suite.opts, logger.NewNopLogger())
	_, report, err := adapter.Fetch(context.Background(), suite.legs("debm08_25"), suite.window())

	suite.NoError(err)
	suite.Equal(1, report.Succeeded)
}

func (suite *PrimaryAdapterTestSuite) TestFailureYieldsEmptyTableAndError() {
	suite.engine.EXPECT().
		FetchPrimary(gomock.Any(), gomock.Any()).
		Return(source.PrimaryTable{}, errors.New("database offline")).
		Times(3)

	var progress []int
	opts := suite.opts
	opts.Progress = func(done, total int) { progress = append(progress, done, total) }

	adapter := source.NewPrimaryAdapter(suite.engine, opts, logger.NewNopLogger())
	got, report, err := adapter.Fetch(context.Background(), suite.legs("debm08_25"), suite.window())

	suite.Error(err)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeSourceUnavailable))
	suite.Equal(0, got.Len())
	suite.True(report.Failed())
	suite.Require().Len(report.Failures, 1)
	suite.Contains(report.Failures[0].Error, "database offline")
	suite.Equal([]int{1, 1}, progress)
}

func (suite *PrimaryAdapterTestSuite) TestTimeout() {
	opts := suite.opts
	opts.Timeout = 5 * time.Millisecond
	opts.Retry.MaxAttempts = 1

	suite.engine.EXPECT().
		FetchPrimary(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ source.PrimaryQuery) (source.PrimaryTable, error) {
			<-ctx.Done()

			return source.PrimaryTable{}, ctx.Err()
		})

	adapter := source.NewPrimaryAdapter(suite.engine, opts, logger.NewNopLogger())
	_, _, err := adapter.Fetch(context.Background(), suite.legs("debm08_25"), suite.window())

	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeSourceTimeout), "got %v", err)
}

func (suite *PrimaryAdapterTestSuite) TestRejectsTooManyLegs() {
	adapter := source.NewPrimaryAdapter(suite.engine, suite.opts, logger.NewNopLogger())
	_, _, err := adapter.Fetch(context.Background(), suite.legs("debm08_25", "debm09_25", "debm10_25"), suite.window())

	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeUnsupportedContractCount))
}
