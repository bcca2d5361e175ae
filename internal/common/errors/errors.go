// Package errors provides the standardized error type shared by the writer,
// the reader and the Camunda job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Template and configuration errors
const (
	ErrCodeTemplateNotFound     ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateInvalid      ErrorCode = "TEMPLATE_INVALID"
	ErrCodeResourceMissing      ErrorCode = "RESOURCE_MISSING"
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"
)

// Instantiation errors
const (
	ErrCodeTemplateParameterMissing ErrorCode = "TEMPLATE_PARAMETER_MISSING"
	ErrCodePromptInvalid            ErrorCode = "PROMPT_INVALID"
	ErrCodePromptNotFound           ErrorCode = "PROMPT_NOT_FOUND"
	ErrCodeResponseNotFound         ErrorCode = "RESPONSE_NOT_FOUND"
)

// Upstream and cache errors
const (
	ErrCodeContextResolutionFailed ErrorCode = "CONTEXT_RESOLUTION_FAILED"
	ErrCodeGenerationFailed        ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout       ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeCacheUnavailable        ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Kind groups error codes into the failure classes callers branch on.
type Kind string

const (
	KindConfiguration Kind = "CONFIGURATION"
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindUpstream      Kind = "UPSTREAM"
	KindCacheIO       Kind = "CACHE_IO"
	KindInternal      Kind = "INTERNAL"
)

var codeKinds = map[ErrorCode]Kind{
	ErrCodeTemplateNotFound:         KindConfiguration,
	ErrCodeTemplateInvalid:          KindConfiguration,
	ErrCodeResourceMissing:          KindConfiguration,
	ErrCodeConfigurationInvalid:     KindConfiguration,
	ErrCodeTemplateParameterMissing: KindValidation,
	ErrCodePromptInvalid:            KindValidation,
	ErrCodePromptNotFound:           KindNotFound,
	ErrCodeResponseNotFound:         KindNotFound,
	ErrCodeContextResolutionFailed:  KindUpstream,
	ErrCodeGenerationFailed:         KindUpstream,
	ErrCodeGenerationTimeout:        KindUpstream,
	ErrCodeCacheUnavailable:         KindCacheIO,
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Kind reports the failure class of the error code.
func (e *StandardError) Kind() Kind {
	return GetErrorCategory(e.Code)
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
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

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return newError(ErrCodeTemplateNotFound, "Template not found in catalog",
		fmt.Sprintf("templateId: %s", templateID), false, nil)
}

// NewTemplateInvalidError reports a template that cannot be instantiated,
// for example one whose id is not a UUID.
func NewTemplateInvalidError(templateID, details string, cause error) *StandardError {
	err := newError(ErrCodeTemplateInvalid, "Template definition is invalid", details, false, cause)
	err.Metadata = map[string]interface{}{"templateId": templateID}
	return err
}

// NewResourceMissingError reports an unreadable content or instruction source.
func NewResourceMissingError(path string, cause error) *StandardError {
	err := newError(ErrCodeResourceMissing, "Resource file not available",
		fmt.Sprintf("path: %s", path), false, cause)
	err.Metadata = map[string]interface{}{"path": path}
	return err
}

func NewConfigurationError(details string, cause error) *StandardError {
	return newError(ErrCodeConfigurationInvalid, "Invalid configuration", details, false, cause)
}

// NewParameterMissingError names the placeholder that could not be resolved.
func NewParameterMissingError(name string) *StandardError {
	err := newError(ErrCodeTemplateParameterMissing,
		fmt.Sprintf("missing template parameter '%s'", name), "", false, nil)
	err.Metadata = map[string]interface{}{"parameter": name}
	return err
}

func NewPromptInvalidError(promptID, details string) *StandardError {
	err := newError(ErrCodePromptInvalid, "Generated prompt record is invalid", details, false, nil)
	err.Metadata = map[string]interface{}{"promptId": promptID}
	return err
}

func NewPromptNotFoundError(promptID string) *StandardError {
	err := newError(ErrCodePromptNotFound,
		fmt.Sprintf("No template or prompt found with ID: %s", promptID), "", false, nil)
	err.Metadata = map[string]interface{}{"promptId": promptID}
	return err
}

func NewResponseNotFoundError(promptID string) *StandardError {
	err := newError(ErrCodeResponseNotFound,
		fmt.Sprintf("No response found for prompt ID: %s", promptID), "", false, nil)
	err.Metadata = map[string]interface{}{"promptId": promptID}
	return err
}

// NewContextResolutionError creates a retryable enrichment error.
func NewContextResolutionError(key string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	err := newError(ErrCodeContextResolutionFailed,
		fmt.Sprintf("failed to resolve context key '%s'", key), details, true, cause)
	err.Metadata = map[string]interface{}{"contextKey": key}
	return err
}

// NewGenerationFailedError creates a retryable generation service error.
func NewGenerationFailedError(cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return newError(ErrCodeGenerationFailed, "Generation service error", details, true, cause)
}

func NewGenerationTimeoutError(timeout time.Duration) *StandardError {
	return newError(ErrCodeGenerationTimeout, "Generation service timeout",
		fmt.Sprintf("call exceeded %s", timeout), true, nil)
}

func NewCacheUnavailableError(cause error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache store unavailable", cause.Error(), true, cause)
}

func NewInternalError(cause error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", cause.Error(), false, cause)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeContextResolutionFailed,
		ErrCodeGenerationFailed,
		ErrCodeCacheUnavailable:
		return 3

	case ErrCodeGenerationTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorKind":         string(GetErrorCategory(stdErr.Code)),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the failure class of the error code.
func GetErrorCategory(code ErrorCode) Kind {
	if kind, ok := codeKinds[code]; ok {
		return kind
	}
	return KindInternal
}

// AsStandard finds the first StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// KindOf returns the failure class of err.
func KindOf(err error) Kind {
	return GetErrorCategory(CodeOf(err))
}

func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

func IsKind(err error, kind Kind) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Kind() == kind
}

// Normalize returns err as a StandardError, wrapping foreign errors as internal ones.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}
