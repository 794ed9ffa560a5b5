// Package policy maps user roles to their lending rules.
//
// The mapping is a pure table lookup: adding a role means adding a table row.
package policy

import "github.com/openshelf/circulation/internal/entities"

// Policy holds the lending rules for a single role.
type Policy struct {
	// BorrowLimit is the maximum number of simultaneously open loans.
	BorrowLimit int
	// LoanPeriodDays is how long a loan runs before it is due.
	LoanPeriodDays int
}

// Librarians get 30 days, matching the due-date rule the circulation desk
// has always used for staff loans.
var policies = map[entities.Role]Policy{
	entities.RoleMember:    {BorrowLimit: 3, LoanPeriodDays: 14},
	entities.RoleLibrarian: {BorrowLimit: 10, LoanPeriodDays: 30},
}

// ForRole returns the lending policy for a role. Unknown roles get the
// member policy, the most restrictive one in the table.
func ForRole(role entities.Role) Policy {
	if p, ok := policies[role]; ok {
		return p
	}
	return policies[entities.RoleMember]
}
