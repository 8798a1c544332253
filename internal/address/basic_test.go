package address

import (
	"context"
	"testing"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() domain.Address {
	return domain.Address{
		FullName:    "Ada Reader",
		Phone:       "555-0100",
		AddressLine: "1 Library Way",
		City:        "Springfield",
		State:       "IL",
	}
}

func TestBasicValidator(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(a *domain.Address)
		wantValid  bool
		wantFields []string
	}{
		{
			name:      "complete",
			modify:    func(a *domain.Address) {},
			wantValid: true,
		},
		{
			name:       "missing city",
			modify:     func(a *domain.Address) { a.City = "" },
			wantFields: []string{"city"},
		},
		{
			name:       "whitespace only counts as empty",
			modify:     func(a *domain.Address) { a.FullName = "   "; a.AddressLine = "\t" },
			wantFields: []string{"fullName", "addressLine"},
		},
		{
			name:       "all empty",
			modify:     func(a *domain.Address) { *a = domain.Address{} },
			wantFields: []string{"fullName", "phone", "addressLine", "city", "state"},
		},
	}

	v := NewBasicValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.modify(&addr)

			result, err := v.Validate(context.Background(), addr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.IsValid)

			fields := result.Fields()
			assert.Len(t, fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Equal(t, RequiredMessage, fields[f], f)
			}
		})
	}
}

func TestBasicValidator_Normalizes(t *testing.T) {
	addr := validAddress()
	addr.City = "  Springfield "

	result, err := NewBasicValidator().Validate(context.Background(), addr)
	require.NoError(t, err)
	require.True(t, result.IsValid)
	assert.Equal(t, "Springfield", result.NormalizedAddress.City)
}

func TestMockValidator(t *testing.T) {
	m := NewMockValidator()
	result, err := m.Validate(context.Background(), validAddress())
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, 1, m.Calls)
}
