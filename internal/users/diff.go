package users

import (
	"strings"

	"github.com/userdeck/userdeck/internal/ability"
	"github.com/userdeck/userdeck/internal/shared"
)

// Changes maps field names to their new values. Only fields that were
// requested, non-empty, and different from the current record appear.
type Changes map[string]string

// Diff reduces a requested update against the current record. The
// reduced set, not the raw request, is what gets rule-checked and what
// reaches the store. Diffing a record against itself yields an empty
// set; an empty set means the update is a no-op.
//
// A non-empty password always counts as changed: the stored value is a
// hash and cannot be compared against the plaintext.
func Diff(current User, req UpdateRequest) Changes {
	ch := Changes{}
	if req.Name != nil {
		if v := shared.NormalizeName(*req.Name); v != "" && v != current.Name {
			ch[ability.FieldName] = v
		}
	}
	if req.Email != nil {
		if v := shared.NormalizeEmail(*req.Email); v != "" && v != current.Email {
			ch[ability.FieldEmail] = v
		}
	}
	if req.Password != nil && *req.Password != "" {
		ch[ability.FieldPassword] = *req.Password
	}
	if req.Role != nil {
		if v := ability.Role(strings.TrimSpace(*req.Role)); v != "" && v != current.Role {
			ch[ability.FieldRole] = string(v)
		}
	}
	return ch
}
