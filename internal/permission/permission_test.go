package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveScopes(t *testing.T) {
	tests := []struct {
		name        string
		permissions Set
		expected    Scopes
	}{
		{
			name:        "nil set yields all false",
			permissions: nil,
			expected:    Scopes{},
		},
		{
			name:        "empty set yields all false",
			permissions: Set{},
			expected:    Scopes{},
		},
		{
			name:        "platform permission sets platform scope",
			permissions: Set{"platform.companies.read"},
			expected:    Scopes{Platform: true},
		},
		{
			name:        "company permission sets company scope",
			permissions: Set{"company.sales.create"},
			expected:    Scopes{Company: true},
		},
		{
			name:        "user permission sets user scope",
			permissions: Set{"user.settings.update"},
			expected:    Scopes{User: true},
		},
		{
			name: "mixed namespaces set every matching scope",
			permissions: Set{
				"platform.users.read",
				"company.products.read",
				"user.settings.update",
			},
			expected: Scopes{Platform: true, Company: true, User: true},
		},
		{
			name:        "prefix must include the dot",
			permissions: Set{"platformish.read", "companywide", "username"},
			expected:    Scopes{},
		},
		{
			name:        "order is irrelevant",
			permissions: Set{"company.read", "platform.analytics.read"},
			expected:    Scopes{Platform: true, Company: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveScopes(tt.permissions))
		})
	}
}

func TestSetHas(t *testing.T) {
	set := Set{"company.products.read", "company.sales.create"}

	assert.True(t, set.Has(CompanyProductsRead))
	assert.True(t, set.Has(CompanySalesCreate))
	assert.False(t, set.Has(CompanyProductsCreate))
	assert.False(t, Set(nil).Has(CompanyRead))
}

func TestSetHasAny(t *testing.T) {
	set := Set{"platform.support.tickets.manage"}

	assert.True(t, set.HasAny(PlatformSupportTicketsRead, PlatformSupportTicketsManage))
	assert.False(t, set.HasAny(PlatformSupportTicketsRead, PlatformSupportTicketsResponse))
	assert.False(t, set.HasAny())
}

func TestSetHasAll(t *testing.T) {
	set := Set{"company.incomes.read", "company.expenses.read"}

	assert.True(t, set.HasAll(CompanyIncomesRead, CompanyExpensesRead))
	assert.False(t, set.HasAll(CompanyIncomesRead, CompanyExpensesCreate))
	assert.True(t, set.HasAll())
}
