package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/stretchr/testify/suite"
)

type NormalizeTestSuite struct {
	suite.Suite
	t0 time.Time
}

func TestNormalizeSuite(t *testing.T) {
	suite.Run(t, new(NormalizeTestSuite))
}

func (suite *NormalizeTestSuite) SetupTest() {
	suite.t0 = time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
}

func (suite *NormalizeTestSuite) TestPrimaryQuotes() {
	records := PrimaryQuotes([]source.PrimaryOrder{
		{Timestamp: suite.t0, BidBestPrice: optional.Some(10.0), AskBestPrice: optional.Some(11.0)},
		{Timestamp: suite.t0, BidBestPrice: optional.Some(math.NaN()), AskBestPrice: optional.Some(11.0)},
	})

	suite.Require().Len(records, 2)
	suite.Equal(types.SourcePrimary, records[0].Source)
	suite.Equal(types.DataKindQuote, records[0].Kind)
	suite.Equal(10.0, records[0].BidPrice.Unwrap())
	suite.Equal(10.5, records[0].MidPrice.Unwrap())
	suite.True(records[0].Price.IsNone())
	suite.True(records[0].Volume.IsNone())

	suite.True(records[1].BidPrice.IsNone())
	suite.True(records[1].MidPrice.IsNone())
}

func (suite *NormalizeTestSuite) TestInfiniteSidesAreAbsent() {
	records := PrimaryQuotes([]source.PrimaryOrder{
		{Timestamp: suite.t0, BidBestPrice: optional.Some(10.0), AskBestPrice: optional.Some(math.Inf(1))},
		{Timestamp: suite.t0, BidBestPrice: optional.Some(math.Inf(-1)), AskBestPrice: optional.Some(11.0)},
	})

	suite.Require().Len(records, 2)
	suite.Equal(10.0, records[0].BidPrice.Unwrap())
	suite.True(records[0].AskPrice.IsNone())
	suite.True(records[0].MidPrice.IsNone())
	suite.True(records[1].BidPrice.IsNone())
	suite.Equal(11.0, records[1].AskPrice.Unwrap())

	fills := SyntheticTrades([]source.SyntheticTrade{
		{Timestamp: suite.t0, Buy: optional.Some(math.Inf(1)), Sell: optional.Some(9.5)},
	})
	suite.Require().Len(fills, 1)
	suite.Equal(types.ActionSell, fills[0].Action.Unwrap())

	quotes := SyntheticQuotes([]source.SyntheticOrder{
		{Timestamp: suite.t0, Bid: optional.Some(math.Inf(1)), Ask: optional.Some(math.Inf(-1))},
	})
	suite.Require().Len(quotes, 1)
	suite.True(quotes[0].BidPrice.IsNone())
	suite.True(quotes[0].AskPrice.IsNone())
}

func (suite *NormalizeTestSuite) TestPrimaryTrades() {
	records := PrimaryTrades([]source.PrimaryTrade{
		{Timestamp: suite.t0, Price: 10.5, Volume: 3, Side: -1, BrokerID: 12, Count: 2, TradeID: "x1"},
		{Timestamp: suite.t0, Price: 10.6, Volume: 1, Side: 0, BrokerID: 12, TradeID: "x2"},
	})

	suite.Require().Len(records, 2)
	suite.Equal(types.ActionSell, records[0].Action.Unwrap())
	suite.Equal(12, records[0].BrokerID.Unwrap())
	suite.Equal(2, records[0].TradeCount.Unwrap())
	suite.Equal("x1", records[0].TradeID.Unwrap())
	suite.True(records[0].BidPrice.IsNone())

	suite.True(records[1].Action.IsNone())
	suite.Equal(1, records[1].TradeCount.Unwrap())
}

func (suite *NormalizeTestSuite) TestSyntheticTradesExplodeFills() {
	records := SyntheticTrades([]source.SyntheticTrade{
		{Timestamp: suite.t0, Buy: optional.Some(1.2), Sell: optional.Some(1.1)},
		{Timestamp: suite.t0.Add(time.Second), Buy: optional.None[float64](), Sell: optional.Some(1.0)},
		{Timestamp: suite.t0.Add(2 * time.Second), Buy: optional.None[float64](), Sell: optional.None[float64]()},
	})

	suite.Require().Len(records, 3)

	buy, sell := records[0], records[1]
	suite.Equal(suite.t0, buy.Timestamp)
	suite.Equal(suite.t0, sell.Timestamp)
	suite.Equal(types.ActionBuy, buy.Action.Unwrap())
	suite.Equal(types.ActionSell, sell.Action.Unwrap())
	suite.Equal(1.2, buy.Price.Unwrap())
	suite.Equal(1.0, buy.Volume.Unwrap())
	suite.Equal(SyntheticBrokerID, buy.BrokerID.Unwrap())
	suite.NotEqual(buy.TradeID.Unwrap(), sell.TradeID.Unwrap())
	suite.Contains(buy.TradeID.Unwrap(), "buy")
	suite.Contains(sell.TradeID.Unwrap(), "sell")
	suite.Equal(types.SourceSynthetic, buy.Source)
}

func (suite *NormalizeTestSuite) TestDatasetsAreSorted() {
	ds := Synthetic(source.SyntheticTable{
		Orders: []source.SyntheticOrder{{Timestamp: suite.t0.Add(time.Minute), Bid: optional.Some(1.0), Ask: optional.Some(1.1)}},
		Trades: []source.SyntheticTrade{{Timestamp: suite.t0, Buy: optional.Some(1.05), Sell: optional.None[float64]()}},
	})

	suite.Require().Equal(2, ds.Len())
	suite.True(ds.Records[0].IsTrade())
	suite.True(ds.Records[1].IsQuote())
}

func (suite *NormalizeTestSuite) TestEmptyInput() {
	suite.True(Primary(source.PrimaryTable{}).IsEmpty())
	suite.True(Synthetic(source.SyntheticTable{}).IsEmpty())
}
