package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldChannel   = "channel"
	FieldOperator  = "operator"
	FieldKind      = "kind"
	FieldValue     = "value"
	FieldSignal    = "signal"
	FieldRule      = "rule"
	FieldAttempt   = "attempt"
	FieldError     = "error"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Debug("data", logger.Fields(logger.FieldChannel, id, logger.FieldValue, v))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperator: op,
		FieldError:    err.Error(),
	}
}
