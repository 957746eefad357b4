package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-spreadfetch/internal/period"
	"github.com/rxtech-lab/argo-spreadfetch/internal/source"
	"github.com/rxtech-lab/argo-spreadfetch/internal/types"
	"github.com/rxtech-lab/argo-spreadfetch/pkg/errors"
)

// DateLayout is the layout of request dates.
const DateLayout = "2006-01-02"

// Request is one fetch request: one contract for a single leg, or two for a spread.
type Request struct {
	Contracts      []string       `json:"contracts" validate:"required,min=1,dive,required" jsonschema:"title=Contracts,description=One contract for a single leg or two for a spread (e.g. debm07_25),minItems=1"`
	Coefficients   []float64      `json:"coefficients,omitempty" jsonschema:"title=Coefficients,description=Leg weights of a spread. Defaults to [1, -1]"`
	Period         Period         `json:"period" jsonschema:"title=Period,description=Date window to fetch"`
	Options        RequestOptions `json:"options" jsonschema:"title=Options,description=Branches to run"`
	TransitionDays int            `json:"transition_days" jsonschema:"title=Transition Days,description=Business days before the end of a delivery unit in which the next unit becomes the reference. Zero or less disables the transition window,default=3"`
}

// Period is either an explicit inclusive date range or a lookback in business days.
type Period struct {
	StartDate    string               `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"title=Start Date,description=First day of the window (YYYY-MM-DD)"`
	EndDate      string               `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"title=End Date,description=Last day of the window (YYYY-MM-DD)"`
	LookbackDays optional.Option[int] `json:"lookback_days,omitempty" jsonschema:"title=Lookback Days,description=Business days ending the day before delivery. Replaces start and end date"`
}

// RequestOptions selects the branches of a request.
type RequestOptions struct {
	IncludePrimary        bool `json:"include_primary" jsonschema:"title=Include Primary,default=true"`
	IncludeSynthetic      bool `json:"include_synthetic" jsonschema:"title=Include Synthetic,default=true"`
	IncludeIndividualLegs bool `json:"include_individual_legs" jsonschema:"title=Include Individual Legs,default=false"`
}

// NewRequest returns a request for the given contracts with every default applied.
func NewRequest(contracts ...string) Request {
	return Request{
		Contracts:      contracts,
		Coefficients:   append([]float64(nil), source.DefaultCoefficients...),
		Options:        RequestOptions{IncludePrimary: true, IncludeSynthetic: true},
		TransitionDays: period.DefaultTransitionDays,
	}
}

// WithDates sets an explicit inclusive date range.
func (r Request) WithDates(start, end string) Request {
	r.Period = Period{StartDate: start, EndDate: end}

	return r
}

// WithLookback sets a lookback of business days.
func (r Request) WithLookback(days int) Request {
	r.Period = Period{LookbackDays: optional.Some(days)}

	return r
}

// requestWire mirrors Request with pointers so absent keys can be defaulted.
type requestWire struct {
	Contracts    []string  `json:"contracts"`
	Coefficients []float64 `json:"coefficients"`
	Period       *struct {
		StartDate    string `json:"start_date"`
		EndDate      string `json:"end_date"`
		LookbackDays *int   `json:"lookback_days"`
	} `json:"period"`
	Options *struct {
		IncludePrimary        *bool `json:"include_primary"`
		IncludeSynthetic      *bool `json:"include_synthetic"`
		IncludeIndividualLegs *bool `json:"include_individual_legs"`
	} `json:"options"`
	TransitionDays *int `json:"transition_days"`
}

// DecodeRequest reads a JSON request, rejecting unknown keys, and applies defaults.
func DecodeRequest(r io.Reader) (Request, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var wire requestWire
	if err := decoder.Decode(&wire); err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to decode request", err)
	}

	req := NewRequest(wire.Contracts...)
	if wire.Coefficients != nil {
		req.Coefficients = wire.Coefficients
	}

	if wire.Period != nil {
		req.Period.StartDate = wire.Period.StartDate
		req.Period.EndDate = wire.Period.EndDate
		if wire.Period.LookbackDays != nil {
			req.Period.LookbackDays = optional.Some(*wire.Period.LookbackDays)
		}
	}

	if wire.Options != nil {
		if wire.Options.IncludePrimary != nil {
			req.Options.IncludePrimary = *wire.Options.IncludePrimary
		}

		if wire.Options.IncludeSynthetic != nil {
			req.Options.IncludeSynthetic = *wire.Options.IncludeSynthetic
		}

		if wire.Options.IncludeIndividualLegs != nil {
			req.Options.IncludeIndividualLegs = *wire.Options.IncludeIndividualLegs
		}
	}

	if wire.TransitionDays != nil {
		req.TransitionDays = *wire.TransitionDays
	}

	return req, nil
}

// DecodeRequestBytes is DecodeRequest over a byte slice.
func DecodeRequestBytes(data []byte) (Request, error) {
	return DecodeRequest(bytes.NewReader(data))
}

// Validate checks the request shape. The contract count is checked by Run.
func (r Request) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid request", err)
	}

	hasDates := r.Period.StartDate != "" || r.Period.EndDate != ""
	if hasDates == r.Period.LookbackDays.IsSome() {
		return errors.New(errors.ErrCodeInvalidDateRange, "period needs either start_date and end_date or lookback_days")
	}

	if hasDates && (r.Period.StartDate == "" || r.Period.EndDate == "") {
		return errors.New(errors.ErrCodeMissingParameter, "period needs both start_date and end_date")
	}

	if r.Period.LookbackDays.IsSome() && r.Period.LookbackDays.Unwrap() <= 0 {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "lookback_days must be positive, got %d", r.Period.LookbackDays.Unwrap())
	}

	if len(r.Contracts) == 2 && len(r.Coefficients) != 0 && len(r.Coefficients) != 2 {
		return errors.Newf(errors.ErrCodeInvalidCoefficients, "a spread takes 2 coefficients, got %d", len(r.Coefficients))
	}

	return nil
}

// Window resolves the request period to a half-open date range. A lookback
// is counted back from the earliest delivery date among the legs.
func (r Request) Window(legs []types.ContractSpec, today time.Time) (types.DateRange, error) {
	if r.Period.LookbackDays.IsSome() {
		if len(legs) == 0 {
			return types.DateRange{}, errors.New(errors.ErrCodeMissingParameter, "lookback needs at least one contract")
		}

		delivery := legs[0].DeliveryDate
		for _, leg := range legs[1:] {
			if leg.DeliveryDate.Before(delivery) {
				delivery = leg.DeliveryDate
			}
		}

		return period.LookbackWindow(delivery, r.Period.LookbackDays.Unwrap(), today), nil
	}

	start, err := time.Parse(DateLayout, r.Period.StartDate)
	if err != nil {
		return types.DateRange{}, errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid start_date %q", r.Period.StartDate)
	}

	end, err := time.Parse(DateLayout, r.Period.EndDate)
	if err != nil {
		return types.DateRange{}, errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid end_date %q", r.Period.EndDate)
	}

	if end.Before(start) {
		return types.DateRange{}, errors.Newf(errors.ErrCodeInvalidDateRange, "end_date %s is before start_date %s", r.Period.EndDate, r.Period.StartDate)
	}

	return types.NewDateRange(start, end), nil
}

// GenerateSchema returns the JSON schema of a request.
func (r *Request) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[int]{}) {
				return &jsonschema.Schema{Type: "integer", Minimum: json.Number("1")}
			}

			return nil
		},
	}

	schema := reflector.Reflect(r)
	schema.Title = "spreadfetch-request"
	schema.Description = "Request schema for a spread fetch"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}
