package ability

import "github.com/google/uuid"

// Role is a high-level permission grouping. Privilege is expressed
// entirely through the rule table; roles carry no rank of their own.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Roles lists every role the policy table must cover.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleUser}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Action is an operation a rule can grant.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionManage is a wildcard covering every action.
	ActionManage Action = "manage"
)

// Subject is the resource type a rule applies to.
type Subject string

// SubjectUser is the only subject this service controls.
const SubjectUser Subject = "User"

// Principal describes the authenticated actor for one request.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// Resource is the minimal view of a record a rule condition may inspect.
type Resource struct {
	ID   uuid.UUID
	Role Role
}

// Condition is a predicate a rule may attach over (principal, record).
type Condition func(p Principal, rec Resource) bool

// Rule grants an action on a subject, optionally scoped to a field set
// and/or a record condition. A nil Fields slice means all fields.
type Rule struct {
	Action    Action
	Subject   Subject
	Fields    []string
	Condition Condition
}

// allowsField reports whether the rule covers the given field.
// An empty field name means the check is not field-scoped.
func (r Rule) allowsField(field string) bool {
	if field == "" || r.Fields == nil {
		return true
	}
	for _, f := range r.Fields {
		if f == field {
			return true
		}
	}
	return false
}
