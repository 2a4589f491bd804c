// Package pipeline holds the error taxonomy and tags shared by the replicator and validator.
package pipeline

import "errors"

var (
	// ErrConnectivity means a store could not be reached. The whole tick is abandoned.
	ErrConnectivity = errors.New("store unreachable")
	// ErrTransientWrite means a write failed while replicating one record. The record stays unsynced.
	ErrTransientWrite = errors.New("transient write failure")
	// ErrUnhandledParse means a payload could not be decoded at all, so validation never ran.
	ErrUnhandledParse = errors.New("unhandled parse error")
)

// Kind tags a validation failure for metrics and logs.
type Kind string

const (
	KindSchema   Kind = "schema_validation"
	KindData     Kind = "data_validation"
	KindBusiness Kind = "business_rule"
	KindParse    Kind = "parse_error"
)

// SchemaSales is the only schema the validation loop evaluates.
const SchemaSales = "sales"
