package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Everything here is
// recoverable at the call boundary; no engine operation terminates the
// process.

var (
	// Task lifecycle errors
	ErrDuplicateTaskID = errors.New("task with this id already exists")
	ErrTaskNotFound    = errors.New("task not found")

	// ErrStorageAccess covers failures reaching shared task/metric storage.
	// Snapshot validity after such a failure is unspecified; the in-memory
	// processor itself remains usable.
	ErrStorageAccess = errors.New("failed to access task storage")

	// ErrInvalidParameter is reserved for task parameter validation.
	ErrInvalidParameter = errors.New("invalid task parameter")

	// ErrSerialization marks malformed structured parameters or payloads.
	ErrSerialization = errors.New("serialization failed")

	// Persistence gateway errors
	ErrPersistenceUnsupported = errors.New("metrics persistence not supported")

	// LLM gateway errors
	ErrLLMNotConfigured = errors.New("llm gateway not configured — missing API key")
	ErrLLMCommunication = errors.New("llm communication failed")
)
