package shared

// Permissions checked by the HTTP surfaces.
const (
	PermAnalyticsView   = "analytics.view"
	PermAnalyticsExport = "analytics.export"
	PermRecordsView     = "records.view"
	PermRecordsEdit     = "records.edit"
	PermExpensesApprove = "expenses.approve"
)

// Tenant roles.
const (
	RoleOwner      = "owner"
	RoleAccountant = "accountant"
	RoleManager    = "manager"
	RoleMember     = "member"
)

var rolePermissions = map[string][]string{
	RoleOwner: {
		PermAnalyticsView, PermAnalyticsExport, PermRecordsView, PermRecordsEdit, PermExpensesApprove,
	},
	RoleAccountant: {
		PermAnalyticsView, PermAnalyticsExport, PermRecordsView, PermRecordsEdit,
	},
	RoleManager: {
		PermAnalyticsView, PermRecordsView, PermExpensesApprove,
	},
	RoleMember: {
		PermRecordsView,
	},
}

// RoleGrants reports whether role includes perm.
func RoleGrants(role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// AllPermissions lists every permission known to the service.
func AllPermissions() []string {
	return []string{
		PermAnalyticsView,
		PermAnalyticsExport,
		PermRecordsView,
		PermRecordsEdit,
		PermExpensesApprove,
	}
}
