// Package logging provides a structured logging abstraction backed by zerolog.
package logging
