// Package errors provides structured error types for better observability
// and programmatic error handling across the engine.
//
// Each engine failure mode has its own code: VALIDATION_FAILED for field-level
// record problems, UNIT_MISMATCH when a conversion crosses physical dimensions,
// INVALID_SUBJECT when a comparison is refused, NO_BENCHMARK_MATCH (soft, reported
// as a note) and ADVISORY_TIMEOUT (swallowed, reported as a note).
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeUnitMismatch,
//	    "cannot convert quantity",
//	    cause,
//	    map[string]interface{}{
//	        "from": "kW",
//	        "to":   "kWh",
//	    },
//	)
//
//	if errors.IsCode(err, errors.ErrCodeUnitMismatch) {
//	    // report the field, keep validating the record
//	}
package errors
