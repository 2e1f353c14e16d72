// Package ability decides whether a principal may perform an action on a
// subject. Rules are derived purely from the principal's role, so two
// principals with the same role always resolve to the same rule set.
package ability

// Ability answers permission queries for a single principal. It holds no
// mutable state and is safe for concurrent use.
type Ability struct {
	principal Principal
	rules     []Rule
}

// For resolves the ability for a principal from the role policy table.
func For(p Principal) Ability {
	return Ability{principal: p, rules: RulesFor(p.Role)}
}

// Principal returns the principal the ability was resolved for.
func (a Ability) Principal() Principal {
	return a.principal
}

// QueryOption narrows a Can check to a field and/or a record.
type QueryOption func(*query)

type query struct {
	field  string
	record *Resource
}

// OnField scopes the check to a single field of the subject.
func OnField(field string) QueryOption {
	return func(q *query) { q.field = field }
}

// OnRecord supplies the record a conditional rule may inspect.
func OnRecord(rec Resource) QueryOption {
	return func(q *query) {
		r := rec
		q.record = &r
	}
}

// Can reports whether at least one rule grants the action. A rule matches
// when its action equals the requested one or is the manage wildcard, its
// subject matches, the requested field (if any) is within the rule's field
// set, and its condition (if any) holds for the supplied record. A
// conditional rule with no record supplied does not match: the evaluator
// fails closed on missing preconditions.
func (a Ability) Can(action Action, subject Subject, opts ...QueryOption) bool {
	var q query
	for _, opt := range opts {
		opt(&q)
	}
	for _, rule := range a.rules {
		if rule.Action != action && rule.Action != ActionManage {
			continue
		}
		if rule.Subject != subject {
			continue
		}
		if !rule.allowsField(q.field) {
			continue
		}
		if rule.Condition != nil {
			if q.record == nil {
				continue
			}
			if !rule.Condition(a.principal, *q.record) {
				continue
			}
		}
		return true
	}
	return false
}

// Cannot is the exact negation of Can for the same arguments.
func (a Ability) Cannot(action Action, subject Subject, opts ...QueryOption) bool {
	return !a.Can(action, subject, opts...)
}
