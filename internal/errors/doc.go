// Package apperrors defines the error taxonomy and process exit codes shared
// across the application. Validation and store errors are surfaced to callers
// synchronously; compute errors are isolated inside the worker loop. No error
// is ever converted into a wrong Fibonacci value.
package apperrors
