package service

import "errors"

var (
	// ErrUserNotFound means the analyzed GitHub account does not exist.
	ErrUserNotFound = errors.New("github user not found")

	// ErrUpstream means the evidence source or inference provider failed.
	ErrUpstream = errors.New("upstream service unavailable")

	// ErrSchemaViolation means the model response did not satisfy the
	// structured-output contract. Nothing is persisted when this happens.
	ErrSchemaViolation = errors.New("model response violates output schema")
)
