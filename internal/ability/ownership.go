package ability

import "github.com/google/uuid"

// IsSelf reports whether the record belongs to the principal. It is kept
// separate from rule evaluation so callers can check ownership ahead of
// the full rule scan and report a more precise refusal.
func IsSelf(p Principal, rec Resource) bool {
	return p.ID != uuid.Nil && rec.ID == p.ID
}
