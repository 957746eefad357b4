package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-spreadfetch/internal/logger"
	"github.com/rxtech-lab/argo-spreadfetch/internal/pipeline"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/mocks"
	pkgerrors "github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PipelineTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	primary   *mocks.MockPrimaryEngine
	synthetic *mocks.MockSyntheticEngine
	pipeline  *pipeline.Pipeline
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (suite *PipelineTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.primary = mocks.NewMockPrimaryEngine(suite.ctrl)
	suite.synthetic = mocks.NewMockSyntheticEngine(suite.ctrl)

	config := pipeline.DefaultConfig()
	config.Fetch.Retry.MaxAttempts = 1
	config.Fetch.Retry.InitialInterval = time.Millisecond
	config.Fetch.Retry.MaxInterval = time.Millisecond

	suite.pipeline = pipeline.New(suite.primary, suite.synthetic, config, logger.NewNopLogger()).
		WithClock(func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) })
}

func (suite *PipelineTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *PipelineTestSuite) primaryTable(seed int64) source.PrimaryTable {
	config := mocks.DefaultConfig()
	config.StartTime = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	config.Count = 60

	return mocks.NewDataGenerator(seed).GeneratePrimary(config)
}

func (suite *PipelineTestSuite) syntheticTable(seed int64) source.SyntheticTable {
	config := mocks.DefaultConfig()
	config.StartTime = time.Date(2025, 7, 1, 9, 0, 30, 0, time.UTC)
	config.Count = 60

	return mocks.NewDataGenerator(seed).GenerateSynthetic(config)
}

func (suite *PipelineTestSuite) keys(result *pipeline.Result) map[string]json.RawMessage {
	data, err := json.Marshal(result)
	suite.Require().NoError(err)

	var out map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal(data, &out))

	return out
}

func (suite *PipelineTestSuite) TestSingleLegNeverMerges() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query source.PrimaryQuery) (source.PrimaryTable, error) {
			suite.Equal("de", query.Market)
			suite.Len(query.Legs, 1)

			return suite.primaryTable(1), nil
		})

	req := pipeline.NewRequest("debm08_25").WithDates("2025-07-01", "2025-07-02")
	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.True(result.SingleLeg.IsSome())
	suite.True(result.SingleLeg.Unwrap().Ok())
	suite.True(result.Merged.IsNone())
	suite.True(result.MergeSkipped.IsNone())
	suite.NotEmpty(result.Metadata.RunID)

	keys := suite.keys(result)
	suite.Contains(keys, "metadata")
	suite.Contains(keys, "single_leg_data")
	suite.NotContains(keys, "merged_spread_data")

	name, ds, ok := result.Final()
	suite.True(ok)
	suite.Equal(pipeline.BranchSingleLeg, name)
	suite.False(ds.IsEmpty())
}

func (suite *PipelineTestSuite) TestSpreadMergesBothSources() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil)
	suite.synthetic.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(suite.syntheticTable(2), nil).MinTimes(1)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-01", "2025-07-02")
	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.Require().True(result.Merged.IsSome())
	merged := result.Merged.Unwrap()
	suite.Require().True(merged.Ok())

	counts := merged.Data.Unwrap().Counts
	suite.Positive(counts.PrimaryQuotes)
	suite.Positive(counts.SyntheticQuotes)
	suite.Equal(merged.Data.Unwrap().Dataset.Len(), counts.UnifiedTotal)

	for _, q := range merged.Data.Unwrap().Dataset.Quotes() {
		if q.BidPrice.IsSome() && q.AskPrice.IsSome() {
			suite.GreaterOrEqual(q.AskPrice.Unwrap(), q.BidPrice.Unwrap())
		}
	}

	keys := suite.keys(result)
	for _, key := range []string{"metadata", "primary_spread_data", "synthetic_spread_data", "merged_spread_data"} {
		suite.Contains(keys, key)
	}
	suite.NotContains(keys, "merge_skipped")

	name, _, ok := result.Final()
	suite.True(ok)
	suite.Equal(pipeline.BranchMerged, name)
}

func (suite *PipelineTestSuite) TestNegativeTransitionDaysDisablesTransition() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil)
	suite.synthetic.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query source.SyntheticQuery) (source.SyntheticTable, error) {
			// the last business days of July still reference July itself
			suite.Require().Len(query.Legs, 2)
			suite.Equal(1, query.Legs[0].Offset)
			suite.Equal(2, query.Legs[1].Offset)

			return suite.syntheticTable(2), nil
		}).MinTimes(1)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-29", "2025-07-31")
	req.TransitionDays = -1

	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)
	suite.Require().True(result.Merged.IsSome())
	suite.True(result.Merged.Unwrap().Ok())
}

func (suite *PipelineTestSuite) TestSyntheticFailureKeepsPrimary() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil)
	suite.synthetic.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).
		Return(source.SyntheticTable{}, errors.New("engine down")).MinTimes(1)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-01", "2025-07-02")
	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.True(result.Primary.Unwrap().Ok())
	suite.False(result.Synthetic.Unwrap().Ok())
	suite.True(pkgerrors.HasCode(result.Synthetic.Unwrap().Err, pkgerrors.ErrCodeSourceUnavailable))
	suite.True(result.Merged.IsNone())
	suite.True(result.MergeSkipped.IsSome())

	keys := suite.keys(result)
	suite.Contains(keys, "primary_spread_data")
	suite.Contains(keys, "synthetic_spread_error")
	suite.Contains(keys, "merge_skipped")
	suite.NotContains(keys, "merged_spread_data")

	name, _, ok := result.Final()
	suite.True(ok)
	suite.Equal(pipeline.BranchPrimary, name)
}

func (suite *PipelineTestSuite) TestPrimaryFailureSkipsMerge() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).
		Return(source.PrimaryTable{}, errors.New("connection refused"))
	suite.synthetic.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(suite.syntheticTable(2), nil).MinTimes(1)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-01", "2025-07-02")
	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.False(result.Primary.Unwrap().Ok())
	suite.True(result.Synthetic.Unwrap().Ok())
	suite.True(result.Merged.IsNone())
	suite.True(result.MergeSkipped.IsSome())
}

func (suite *PipelineTestSuite) TestPrimaryOnlySpread() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-01", "2025-07-02")
	req.Options.IncludeSynthetic = false

	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.True(result.Primary.IsSome())
	suite.True(result.Synthetic.IsNone())
	suite.True(result.Merged.IsNone())
	suite.True(result.MergeSkipped.IsSome())

	data := result.Primary.Unwrap().Data.Unwrap()
	suite.Zero(data.Counts.SyntheticQuotes)
	suite.Len(data.Fetch, 1)
}

func (suite *PipelineTestSuite) TestIndividualLegs() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil).Times(3)
	suite.synthetic.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(suite.syntheticTable(2), nil).MinTimes(1)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-01", "2025-07-02")
	req.Options.IncludeIndividualLegs = true

	result, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.Require().Len(result.Legs, 2)
	keys := suite.keys(result)
	suite.Contains(keys, "leg_1_data")
	suite.Contains(keys, "leg_2_data")
}

func (suite *PipelineTestSuite) TestSequentialFetch() {
	config := pipeline.DefaultConfig()
	config.ParallelFetch = false
	config.Fetch.Retry.MaxAttempts = 1
	p := pipeline.New(suite.primary, suite.synthetic, config, logger.NewNopLogger())

	gomock.InOrder(
		suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil),
		suite.synthetic.EXPECT().FetchSynthetic(gomock.Any(), gomock.Any()).Return(suite.syntheticTable(2), nil),
	)

	req := pipeline.NewRequest("debm08_25", "debm09_25").WithDates("2025-07-01", "2025-07-02")
	result, err := p.Run(context.Background(), req)
	suite.Require().NoError(err)
	suite.True(result.Merged.IsSome())
}

func (suite *PipelineTestSuite) TestFatalErrors() {
	tests := []struct {
		name string
		req  pipeline.Request
		code pkgerrors.ErrorCode
	}{
		{
			name: "three contracts",
			req:  pipeline.NewRequest("debm08_25", "debm09_25", "debm10_25").WithDates("2025-07-01", "2025-07-02"),
			code: pkgerrors.ErrCodeUnsupportedContractCount,
		},
		{
			name: "malformed contract",
			req:  pipeline.NewRequest("xx").WithDates("2025-07-01", "2025-07-02"),
			code: pkgerrors.ErrCodeInvalidContractFormat,
		},
		{
			name: "unknown product",
			req:  pipeline.NewRequest("dexm08_25").WithDates("2025-07-01", "2025-07-02"),
			code: pkgerrors.ErrCodeUnknownProductCode,
		},
		{
			name: "end before start",
			req:  pipeline.NewRequest("debm08_25").WithDates("2025-07-02", "2025-07-01"),
			code: pkgerrors.ErrCodeInvalidDateRange,
		},
		{
			name: "no contracts",
			req:  pipeline.NewRequest().WithDates("2025-07-01", "2025-07-02"),
			code: pkgerrors.ErrCodeInvalidRequest,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := suite.pipeline.Run(context.Background(), tc.req)
			suite.Nil(result)
			suite.Require().Error(err)
			suite.Equal(tc.code, pkgerrors.GetCode(err))
		})
	}
}

func (suite *PipelineTestSuite) TestLookbackWindow() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query source.PrimaryQuery) (source.PrimaryTable, error) {
			suite.Equal(time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), query.Window.Start)
			suite.Equal(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), query.Window.End)

			return source.PrimaryTable{}, nil
		})

	result, err := suite.pipeline.Run(context.Background(), pipeline.NewRequest("debm08_25").WithLookback(5))
	suite.Require().NoError(err)
	suite.True(result.SingleLeg.Unwrap().Ok())
	suite.True(result.SingleLeg.Unwrap().Data.Unwrap().Dataset.IsEmpty())
}

func (suite *PipelineTestSuite) TestValidatorIsPerRun() {
	suite.primary.EXPECT().FetchPrimary(gomock.Any(), gomock.Any()).Return(suite.primaryTable(1), nil).Times(2)

	req := pipeline.NewRequest("debm08_25").WithDates("2025-07-01", "2025-07-02")

	first, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)
	second, err := suite.pipeline.Run(context.Background(), req)
	suite.Require().NoError(err)

	suite.Positive(first.Metadata.Validation.TotalProcessed)
	suite.Equal(first.Metadata.Validation, second.Metadata.Validation)
	suite.NotEqual(first.Metadata.RunID, second.Metadata.RunID)
}
