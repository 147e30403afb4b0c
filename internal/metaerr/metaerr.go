// Package metaerr attaches key/value metadata to errors so that callers
// can log structured context without stuffing it into the error message.
package metaerr

import "errors"

type metaError struct {
	err  error
	meta []any
}

func (e *metaError) Error() string {
	return e.err.Error()
}

func (e *metaError) Unwrap() error {
	return e.err
}

// WithMetadata wraps err with alternating key/value pairs.
// A nil err returns nil.
func WithMetadata(err error, keyvals ...any) error {
	if err == nil {
		return nil
	}
	return &metaError{
		err:  err,
		meta: keyvals,
	}
}

// GetMetadata collects the metadata of every metaerr in the chain of err,
// outermost first. The result is suitable for slog.With.
func GetMetadata(err error) []any {
	var meta []any
	for err != nil {
		var me *metaError
		if !errors.As(err, &me) {
			break
		}
		meta = append(meta, me.meta...)
		err = me.err
	}
	return meta
}
