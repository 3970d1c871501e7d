// Package permission models the backend's dot-namespaced permission
// strings and the coarse scopes derived from them.
package permission

import "strings"

// Capability is a dot-namespaced permission string checked by exact
// membership against the caller's permission set. The values must match
// the backend verbatim.
type Capability string

// Platform capabilities.
const (
	PlatformCompaniesRead          Capability = "platform.companies.read"
	PlatformCompaniesCreate        Capability = "platform.companies.create"
	PlatformUsersRead              Capability = "platform.users.read"
	PlatformRolesRead              Capability = "platform.roles.read"
	PlatformRolesCreate            Capability = "platform.roles.create"
	PlatformRolesUpdate            Capability = "platform.roles.update"
	PlatformAnalyticsRead          Capability = "platform.analytics.read"
	PlatformSupportRead            Capability = "platform.support.read"
	PlatformSupportTicketsRead     Capability = "platform.support.tickets.read"
	PlatformSupportTicketsResponse Capability = "platform.support.tickets.response"
	PlatformSupportTicketsManage   Capability = "platform.support.tickets.manage"
)

// Company capabilities.
const (
	CompanyRead              Capability = "company.read"
	CompanyCashOpen          Capability = "company.cash.open"
	CompanyCashClose         Capability = "company.cash.close"
	CompanyProductsRead      Capability = "company.products.read"
	CompanyProductsCreate    Capability = "company.products.create"
	CompanyProductsImportCSV Capability = "company.products.import.csv"
	CompanySalesRead         Capability = "company.sales.read"
	CompanySalesCreate       Capability = "company.sales.create"
	CompanyIncomesRead       Capability = "company.incomes.read"
	CompanyIncomesCreate     Capability = "company.incomes.create"
	CompanyExpensesRead      Capability = "company.expenses.read"
	CompanyExpensesCreate    Capability = "company.expenses.create"
	CompanySettingsRead      Capability = "company.settings.read"
	CompanySuppliersRead     Capability = "company.suppliers.read"
	CompanySuppliersCreate   Capability = "company.suppliers.create"
)

// Scope prefixes. A scope is true when at least one permission string
// starts with the corresponding prefix.
const (
	platformPrefix = "platform."
	companyPrefix  = "company."
	userPrefix     = "user."
)

// Set is the caller's flat permission-string list. Order is irrelevant.
type Set []string

// Has reports whether the set contains the capability exactly.
func (s Set) Has(capability Capability) bool {
	for _, entry := range s {
		if entry == string(capability) {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains at least one of the given
// capabilities.
func (s Set) HasAny(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if s.Has(capability) {
			return true
		}
	}
	return false
}

// HasAll reports whether the set contains every given capability.
func (s Set) HasAll(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if !s.Has(capability) {
			return false
		}
	}
	return true
}

// Scopes is the coarse boolean projection of a permission set onto the
// three top-level namespaces. It is recomputed per request, never
// stored.
type Scopes struct {
	Platform bool
	Company  bool
	User     bool
}

// DeriveScopes projects a permission set onto Scopes. The empty or nil
// set yields all-false.
func DeriveScopes(permissions Set) Scopes {
	var scopes Scopes
	for _, entry := range permissions {
		switch {
		case strings.HasPrefix(entry, platformPrefix):
			scopes.Platform = true
		case strings.HasPrefix(entry, companyPrefix):
			scopes.Company = true
		case strings.HasPrefix(entry, userPrefix):
			scopes.User = true
		}
	}
	return scopes
}
