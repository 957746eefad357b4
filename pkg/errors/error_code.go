package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Request and configuration errors (100-199)
	ErrCodeInvalidRequest       ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidDateRange     ErrorCode = 103
	ErrCodeInvalidCoefficients  ErrorCode = 104

	// Contract errors (200-299)
	ErrCodeInvalidContractFormat    ErrorCode = 200
	ErrCodeUnknownProductCode       ErrorCode = 201
	ErrCodeUnknownTenor             ErrorCode = 202
	ErrCodeInvalidPeriodCode        ErrorCode = 203
	ErrCodeUnsupportedContractCount ErrorCode = 204

	// Source errors (300-399)
	ErrCodeSourceUnavailable   ErrorCode = 300
	ErrCodeSourceTimeout       ErrorCode = 301
	ErrCodeQueryFailed         ErrorCode = 302
	ErrCodeStoreSchemaMismatch ErrorCode = 303
	ErrCodeImportFailed        ErrorCode = 304

	// Pipeline errors (400-499)
	ErrCodeMergeSkipped ErrorCode = 400

	// Export errors (500-599)
	ErrCodeExportFailed ErrorCode = 500
)

// ErrCodeInvalidProductCode is the parser's alternative name for an unmapped product character.
const ErrCodeInvalidProductCode = ErrCodeUnknownProductCode

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:                  "Unknown",
	ErrCodeInvalidRequest:           "InvalidRequest",
	ErrCodeInvalidConfiguration:     "InvalidConfiguration",
	ErrCodeMissingParameter:         "MissingParameter",
	ErrCodeInvalidDateRange:         "InvalidDateRange",
	ErrCodeInvalidCoefficients:      "InvalidCoefficients",
	ErrCodeInvalidContractFormat:    "InvalidContractFormat",
	ErrCodeUnknownProductCode:       "UnknownProductCode",
	ErrCodeUnknownTenor:             "UnknownTenor",
	ErrCodeInvalidPeriodCode:        "InvalidPeriodCode",
	ErrCodeUnsupportedContractCount: "UnsupportedContractCount",
	ErrCodeSourceUnavailable:        "SourceUnavailable",
	ErrCodeSourceTimeout:            "SourceTimeout",
	ErrCodeQueryFailed:              "QueryFailed",
	ErrCodeStoreSchemaMismatch:      "StoreSchemaMismatch",
	ErrCodeImportFailed:             "ImportFailed",
	ErrCodeMergeSkipped:             "MergeSkipped",
	ErrCodeExportFailed:             "ExportFailed",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "Unknown"
}
