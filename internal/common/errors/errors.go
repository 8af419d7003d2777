// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Counseling engine errors
const (
	ErrCodeCollegeNotFound               ErrorCode = "COLLEGE_NOT_FOUND"
	ErrCodeNoCutoffData                  ErrorCode = "NO_CUTOFF_DATA"
	ErrCodeIndexUnavailable              ErrorCode = "INDEX_UNAVAILABLE"
	ErrCodeDatasetLoadFailed             ErrorCode = "DATASET_LOAD_FAILED"
	ErrCodeInvalidQueryInput             ErrorCode = "INVALID_QUERY_INPUT"
	ErrCodeSupplementaryValidationFailed ErrorCode = "SUPPLEMENTARY_VALIDATION_FAILED"
	ErrCodeSupplementaryStoreFailed      ErrorCode = "SUPPLEMENTARY_STORE_FAILED"
	ErrCodeInternal                      ErrorCode = "INTERNAL_ERROR"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed          ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout                  ErrorCode = "QUERY_TIMEOUT"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeBrokerUnavailable             ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout                 ErrorCode = "BROKER_TIMEOUT"
	ErrCodeBrokerRejected                ErrorCode = "BROKER_REJECTED"
)

// StandardError is the common error shape for all workers.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// As extracts a *StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewCollegeNotFoundError reports a specific-college lookup with no matching college.
func NewCollegeNotFoundError(search string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollegeNotFound,
		Message:   fmt.Sprintf("College '%s' not found.", search),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCutoffDataError reports a college without data for the requested course and category.
func NewNoCutoffDataError(course, college string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCutoffData,
		Message:   fmt.Sprintf("No data for %s in %s", course, college),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexUnavailableError marks a secondary index failure; the engine falls back to a linear scan.
func NewIndexUnavailableError(strategy string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexUnavailable,
		Message:   fmt.Sprintf("Cutoff index %q unavailable", strategy),
		Details:   errDetails(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"strategy": strategy},
		Timestamp: time.Now().UTC(),
	}
}

func NewDatasetLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetLoadFailed,
		Message:   fmt.Sprintf("Failed to load cutoff dataset from %s", source),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidQueryInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQueryInput,
		Message:   "Invalid query input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSupplementaryValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSupplementaryValidationFailed,
		Message:   "Supplementary cutoff entries failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewSupplementaryStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSupplementaryStoreFailed,
		Message:   "Failed to store supplementary cutoff entries",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   fmt.Sprintf("Query execution failed: %s", queryType),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   fmt.Sprintf("Query timed out: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   fmt.Sprintf("Search query failed: %s", queryType),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   fmt.Sprintf("Index not found: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerUnavailableError reports a Zeebe gateway that could not be reached.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   fmt.Sprintf("Zeebe gateway unavailable: %s", operation),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewBrokerTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerTimeout,
		Message:   fmt.Sprintf("Zeebe command timed out: %s", operation),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerRejectedError covers commands the broker refused (unknown job, permissions).
func NewBrokerRejectedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerRejected,
		Message:   fmt.Sprintf("Zeebe command rejected: %s", operation),
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCollegeNotFound:               "COLLEGE_NOT_FOUND",
	ErrCodeNoCutoffData:                  "NO_CUTOFF_DATA",
	ErrCodeIndexUnavailable:              "INDEX_UNAVAILABLE",
	ErrCodeDatasetLoadFailed:             "DATASET_LOAD_FAILED",
	ErrCodeInvalidQueryInput:             "INVALID_QUERY_INPUT",
	ErrCodeSupplementaryValidationFailed: "SUPPLEMENTARY_VALIDATION_FAILED",
	ErrCodeSupplementaryStoreFailed:      "SUPPLEMENTARY_STORE_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeBrokerUnavailable:             "BROKER_UNAVAILABLE",
	ErrCodeBrokerTimeout:                 "BROKER_TIMEOUT",
	ErrCodeBrokerRejected:                "BROKER_REJECTED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatasetLoadFailed,
		ErrCodeSupplementaryStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeBrokerUnavailable:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout, ErrCodeIndexUnavailable, ErrCodeBrokerTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "COLLEGE") || strings.Contains(codeStr, "CUTOFF"):
		return "COUNSELING"
	case strings.Contains(codeStr, "SUPPLEMENTARY") || strings.Contains(codeStr, "DATASET"):
		return "DATA"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "BROKER"):
		return "BROKER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	default:
		return "OTHER"
	}
}
