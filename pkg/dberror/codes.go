package dberror

// Error codes shared across packages.
const (
	CodeTempFileCreate = "TEMP_FILE_CREATE"
	CodeTempFileOpen   = "TEMP_FILE_OPEN"
	CodeRunWrite       = "RUN_WRITE_FAILED"
	CodeRunRead        = "RUN_READ_FAILED"
	CodeRunCorrupt     = "RUN_CORRUPT"
	CodeTypeMismatch   = "TYPE_MISMATCH"
	CodeUnknownAttr    = "UNKNOWN_ATTRIBUTE"
	CodeBatchFull      = "BATCH_FULL"
	CodeTupleTooLarge  = "TUPLE_TOO_LARGE"
	CodeTooFewBuffers  = "TOO_FEW_BUFFERS"
	CodeNotOpen        = "OPERATOR_NOT_OPEN"
	CodeNotExecutable  = "OPERATOR_NOT_EXECUTABLE"
	CodeCostFailed     = "COST_FAILED"
	CodeInvalidPlan    = "INVALID_PLAN"
	CodeUnsupportedSQL = "UNSUPPORTED_SQL"
	CodeStoreFailed    = "STORE_FAILED"
	CodeInvalidConfig  = "INVALID_CONFIG"
)
