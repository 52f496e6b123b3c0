package workflow

import (
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// Selection errors. Compare with errors.Is; codes identify them.
var (
	ErrMissingSchema = perrors.New(perrors.ErrCodeMissingSchema, "Please select a schema.", nil)
	ErrMissingIndex  = perrors.New(perrors.ErrCodeMissingIndex, "Please select an index.", nil)
)

// CheckSelection verifies a schema and then an index are selected.
func CheckSelection(sel Selection) error {
	if sel.Schema == "" {
		return perrors.New(perrors.ErrCodeMissingSchema, ErrMissingSchema.Message, nil)
	}
	if sel.Index == "" {
		return perrors.New(perrors.ErrCodeMissingIndex, ErrMissingIndex.Message, nil)
	}
	return nil
}
