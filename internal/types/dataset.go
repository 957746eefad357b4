package types

// Dataset is an ordered-by-timestamp sequence of canonical records.
// Stages never mutate a Dataset they receive; they build a new one.
type Dataset struct {
	Records []MarketRecord `json:"records"`
}

// NewDataset copies records into a new dataset sorted by timestamp.
func NewDataset(records []MarketRecord) Dataset {
	out := make([]MarketRecord, len(records))
	copy(out, records)
	SortByTimestamp(out)

	return Dataset{Records: out}
}

func (d Dataset) Len() int {
	return len(d.Records)
}

func (d Dataset) IsEmpty() bool {
	return len(d.Records) == 0
}

// Trades returns the trade records in order.
func (d Dataset) Trades() []MarketRecord {
	return d.filter(DataKindTrade)
}

// Quotes returns the quote records in order.
func (d Dataset) Quotes() []MarketRecord {
	return d.filter(DataKindQuote)
}

func (d Dataset) filter(kind DataKind) []MarketRecord {
	out := make([]MarketRecord, 0, len(d.Records))
	for _, r := range d.Records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}

	return out
}
