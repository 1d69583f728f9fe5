package domain

import "errors"

// ErrFlowNotFound is returned when a flow ID cannot be found in a store or catalog.
var ErrFlowNotFound = errors.New("flow not found")

// ErrInvalidFlowID is returned when a flow ID is empty or cannot be used as a storage key.
var ErrInvalidFlowID = errors.New("invalid flow id")

// ErrFactNotFlat is returned when a fact payload contains nested objects or arrays.
var ErrFactNotFlat = errors.New("fact must be a flat object of scalar values")

// ErrFactMismatch is returned when a fact does not satisfy the flow's fact_schema.
var ErrFactMismatch = errors.New("fact does not match the flow's fact schema")

// ErrInvalidFactSchema is returned when a flow's fact_schema names an unsupported type.
var ErrInvalidFactSchema = errors.New("invalid fact schema")
