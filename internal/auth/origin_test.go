package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fiore/internal/auth"
)

func TestNewOriginPolicy(t *testing.T) {
	type testCase struct {
		name    string
		origins []string
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", origins: []string{"http://localhost:3000", "https://fioreinvoicemanager.onrender.com/"}},
		{name: "Empty", origins: nil, wantErr: true},
		{name: "OnlyBlank", origins: []string{" ", ""}, wantErr: true},
		{name: "WithPath", origins: []string{"https://example.com/app"}, wantErr: true},
		{name: "NoScheme", origins: []string{"example.com"}, wantErr: true},
		{name: "Wildcard", origins: []string{"*"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewOriginPolicy(tt.origins)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestOriginPolicy_Allows(t *testing.T) {
	p, err := auth.NewOriginPolicy([]string{"http://localhost:3000", "https://fioreinvoicemanager.onrender.com"})
	require.NoError(t, err)

	assert.True(t, p.Allows("http://localhost:3000"))
	assert.True(t, p.Allows("HTTPS://FioreInvoiceManager.onrender.com"))
	assert.False(t, p.Allows("http://localhost:3001"))
	assert.False(t, p.Allows("https://localhost:3000"))
	assert.False(t, p.Allows("https://fioreinvoicemanager.onrender.com.evil.io"))
	assert.False(t, p.Allows(""))
	assert.False(t, p.Allows("null"))

	var none *auth.OriginPolicy
	assert.False(t, none.Allows("http://localhost:3000"))
}
