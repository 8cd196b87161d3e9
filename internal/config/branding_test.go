package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultBranding(t *testing.T) {
	b := DefaultBranding()
	assert.Equal(t, "Auto Visite Tech", b.CompanyName)
	assert.NotEmpty(t, b.AddressLines)
	assert.NoError(t, validateBranding(b))
}

func TestBrandingHolder_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewBrandingHolder()
	assert.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, DefaultBranding(), got)
}

func TestValidateBranding_EmptyCompanyName(t *testing.T) {
	b := DefaultBranding()
	b.CompanyName = "  "
	assert.Error(t, validateBranding(b))
}
