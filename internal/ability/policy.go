package ability

import "fmt"

// Field names referenced by field-scoped rules.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"
)

// isSelfCondition matches records owned by the principal.
func isSelfCondition(p Principal, rec Resource) bool {
	return IsSelf(p, rec)
}

// managerScope limits manager updates to plain users and the manager's
// own record. Other managers and admins stay off limits.
func managerScope(p Principal, rec Resource) bool {
	return rec.Role == RoleUser || IsSelf(p, rec)
}

// policy is the static role policy table. Rules only grant; there is no
// deny rule type, so evaluation ORs across the listed rules.
var policy = map[Role][]Rule{
	RoleAdmin: {
		{Action: ActionManage, Subject: SubjectUser},
	},
	RoleManager: {
		{Action: ActionRead, Subject: SubjectUser},
		{Action: ActionUpdate, Subject: SubjectUser, Fields: []string{FieldName, FieldEmail}, Condition: managerScope},
	},
	RoleUser: {
		{Action: ActionRead, Subject: SubjectUser, Condition: isSelfCondition},
		{Action: ActionUpdate, Subject: SubjectUser, Condition: isSelfCondition},
	},
}

// RulesFor returns the rule set for a role. Unknown roles hold no rules.
func RulesFor(role Role) []Rule {
	return policy[role]
}

// ValidatePolicy checks the table is total: every role maps to at least
// one rule. Called once at process start.
func ValidatePolicy() error {
	for _, role := range Roles() {
		if len(policy[role]) == 0 {
			return fmt.Errorf("ability: role %q has no rules", role)
		}
	}
	return nil
}
