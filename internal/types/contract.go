package types

import "time"

// Product is the delivery profile of a contract.
type Product string

const (
	ProductBase Product = "base"
	ProductPeak Product = "peak"
)

// Code returns the single-character product code used in contract strings.
func (p Product) Code() string {
	if p == "" {
		return ""
	}

	return string(p[:1])
}

// Tenor is the delivery-period granularity of a contract.
type Tenor string

const (
	TenorDay     Tenor = "day"
	TenorWeek    Tenor = "week"
	TenorMonth   Tenor = "month"
	TenorQuarter Tenor = "quarter"
	TenorYear    Tenor = "year"
)

// Code returns the single-character tenor code used in contract strings.
func (t Tenor) Code() string {
	if t == "" {
		return ""
	}

	return string(t[:1])
}

// Symbol returns the upper-case letter used in relative period labels such as "M+1".
func (t Tenor) Symbol() string {
	switch t {
	case TenorDay:
		return "D"
	case TenorWeek:
		return "W"
	case TenorQuarter:
		return "Q"
	case TenorYear:
		return "Y"
	default:
		return "M"
	}
}

// ContractSpec describes an absolute contract. It is a read-only value once parsed.
type ContractSpec struct {
	Market       string    `json:"market" yaml:"market"`
	Product      Product   `json:"product" yaml:"product"`
	Tenor        Tenor     `json:"tenor" yaml:"tenor"`
	Contract     string    `json:"contract" yaml:"contract"`
	DeliveryDate time.Time `json:"delivery_date" yaml:"delivery_date"`
}

// Code formats the contract back into its absolute contract code, e.g. "debm07_25".
func (c ContractSpec) Code() string {
	return c.Market + c.Product.Code() + c.Tenor.Code() + c.Contract
}
