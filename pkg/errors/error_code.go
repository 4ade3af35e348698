package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeMissingParameter     ErrorCode = 101
	ErrCodeInvalidParameter     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidInterval      ErrorCode = 104

	// Feed errors (200-299)
	ErrCodeInvalidBarSequence ErrorCode = 200
	ErrCodeEmptyFeed          ErrorCode = 201
	ErrCodeFeedReadFailed     ErrorCode = 202
	ErrCodeFeedUnavailable    ErrorCode = 203
	ErrCodeInsufficientData   ErrorCode = 204

	// Simulation errors (300-399)
	ErrCodeTradeLogNil      ErrorCode = 300
	ErrCodeTradeLogFailed   ErrorCode = 301
	ErrCodeInvalidTrade     ErrorCode = 302
	ErrCodeNoFeedConfigured ErrorCode = 303
	ErrCodeNoResultsFolder  ErrorCode = 304

	// Signal errors (400-499)
	ErrCodePredictorFailed   ErrorCode = 400
	ErrCodeEnrichmentFailed  ErrorCode = 401
	ErrCodeIndicatorNotReady ErrorCode = 402

	// Execution errors (500-599)
	ErrCodeFillFailed       ErrorCode = 500
	ErrCodeRetriesExhausted ErrorCode = 501

	// Report errors (600-699)
	ErrCodeReportWriteFailed  ErrorCode = 600
	ErrCodeReportRenderFailed ErrorCode = 601

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
)
