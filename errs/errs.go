// Package errs defines the toolkit's shared error taxonomy: a small set of
// reason codes every adapter and the router map their failures onto, in the
// style of the teacher's reasoncodes package but carrying a wrapped cause
// instead of a bare string tag.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure, independent of which provider or
// adapter produced it.
type Code string

const (
	CodeProviderNotAvailable   Code = "ProviderNotAvailable"
	CodeUnsupportedToken       Code = "UnsupportedToken"
	CodeUnsupportedPrivacyLevel Code = "UnsupportedPrivacyLevel"
	CodeInsufficientBalance    Code = "InsufficientBalance"
	CodeAmountBelowMinimum     Code = "AmountBelowMinimum"
	CodeRecipientNotFound      Code = "RecipientNotFound"
	CodeWalletNotConnected     Code = "WalletNotConnected"
	CodeProofGeneration        Code = "ProofGeneration"
	CodeProofVerification      Code = "ProofVerification"
	CodeTransaction            Code = "Transaction"
	CodeNetwork                Code = "Network"
	CodeTimeout                Code = "Timeout"
	CodeInvalidFormat          Code = "InvalidFormat"
)

// Error is a reason-coded error carrying an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that wraps cause, preserving it for errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the Code from err if it is, or wraps, an *Error; the zero
// Code otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err is, or wraps, an *Error with the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

func ProviderNotAvailable(provider string, cause error) *Error {
	return Wrap(CodeProviderNotAvailable, fmt.Sprintf("provider %q is not available", provider), cause)
}

func UnsupportedToken(token string) *Error {
	return New(CodeUnsupportedToken, fmt.Sprintf("token %q is not supported", token))
}

func UnsupportedPrivacyLevel(level string) *Error {
	return New(CodeUnsupportedPrivacyLevel, fmt.Sprintf("privacy level %q is not supported", level))
}

func InsufficientBalance(have, want string) *Error {
	return New(CodeInsufficientBalance, fmt.Sprintf("insufficient balance: have %s, need %s", have, want))
}

func AmountBelowMinimum(amount, minimum string) *Error {
	return New(CodeAmountBelowMinimum, fmt.Sprintf("amount %s is below the minimum %s", amount, minimum))
}

func RecipientNotFound(recipient string) *Error {
	return New(CodeRecipientNotFound, fmt.Sprintf("recipient %q not found", recipient))
}

func WalletNotConnected() *Error {
	return New(CodeWalletNotConnected, "wallet is not connected")
}

func ProofGeneration(cause error) *Error {
	return Wrap(CodeProofGeneration, "proof generation failed", cause)
}

func ProofVerification(cause error) *Error {
	return Wrap(CodeProofVerification, "proof verification failed", cause)
}

func Transaction(cause error) *Error {
	return Wrap(CodeTransaction, "transaction failed", cause)
}

func Network(cause error) *Error {
	return Wrap(CodeNetwork, "network request failed", cause)
}

func Timeout(cause error) *Error {
	return Wrap(CodeTimeout, "operation timed out", cause)
}

func InvalidFormat(message string) *Error {
	return New(CodeInvalidFormat, message)
}
