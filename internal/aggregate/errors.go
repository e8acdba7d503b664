package aggregate

import (
	"fmt"

	apperrors "groupagg/internal/errors"
)

// groupKeyContext is the AppError context key carrying the failed GroupKey.
const groupKeyContext = "group_key"

func schemaError(format string, args ...interface{}) *apperrors.AppError {
	return apperrors.NewSchemaError(fmt.Sprintf(format, args...), nil)
}

func computeError(key GroupKey, cause error) *apperrors.AppError {
	return apperrors.NewComputeError(fmt.Sprintf("computation failed for group %s", key), cause).
		WithContext(groupKeyContext, key)
}

// IsSchemaError reports whether err is a structural failure: a missing or
// duplicated grouping column, a non-rectangular result, or a name collision.
func IsSchemaError(err error) bool {
	return apperrors.IsType(err, apperrors.ErrTypeSchema)
}

// IsComputeError reports whether err is a per-partition computation failure.
func IsComputeError(err error) bool {
	return apperrors.IsType(err, apperrors.ErrTypeCompute)
}

// FailedGroup returns the key of the partition a compute or schema error was
// raised for, when known.
func FailedGroup(err error) (GroupKey, bool) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return GroupKey{}, false
	}
	key, ok := appErr.Context[groupKeyContext].(GroupKey)
	return key, ok
}
