package planning

import (
	"fmt"

	"github.com/forPelevin/brollplan/internal/types"
)

// ValidationError pinpoints the offending edit and field in a malformed EDL.
// EditIndex is -1 for EDL-level problems.
type ValidationError struct {
	EditIndex int
	Field     string
	Detail    string
}

func (e *ValidationError) Error() string {
	if e.EditIndex < 0 {
		return fmt.Sprintf("invalid edl: %s", e.Detail)
	}
	return fmt.Sprintf("invalid edl: edit %d field %q: %s", e.EditIndex, e.Field, e.Detail)
}

// Validate is a shape check on a finished EDL before it is persisted or
// rendered. Ordering and overlap are construction invariants of the planner
// and are not re-derived here.
func Validate(edl types.EDL) error {
	if edl.Edits == nil {
		return &ValidationError{EditIndex: -1, Field: "edits", Detail: "edits field is missing"}
	}
	for i, e := range edl.Edits {
		if e.StartTime < 0 {
			return &ValidationError{EditIndex: i, Field: "start_time", Detail: fmt.Sprintf("negative start time %.2f", e.StartTime)}
		}
		if e.Duration <= 0 {
			return &ValidationError{EditIndex: i, Field: "duration", Detail: fmt.Sprintf("non-positive duration %.2f", e.Duration)}
		}
		if e.BrollClip == "" {
			return &ValidationError{EditIndex: i, Field: "b_roll_clip", Detail: "clip name is missing"}
		}
		if e.Reason == "" {
			return &ValidationError{EditIndex: i, Field: "reason", Detail: "reason is missing"}
		}
	}
	return nil
}
