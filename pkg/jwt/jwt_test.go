package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/metrologia-api/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func TestGenerateYParse_ConservaClaims(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "user-1", "agent-7", pkgjwt.RoleInspector, "metrologia-api-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, agentID, role, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "agent-7", agentID)
	assert.Equal(t, pkgjwt.RoleInspector, role)
}

func TestParse_Rechazos(t *testing.T) {
	expirado, err := pkgjwt.Generate(secret, "user-1", "", pkgjwt.RoleAdmin, "test", -1)
	require.NoError(t, err)
	valido, err := pkgjwt.Generate(secret, "user-1", "", pkgjwt.RoleAdmin, "test", 60)
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"expirado":          {secret, expirado},
		"secret incorrecto": {"otro-secret-completamente-distinto", valido},
		"malformado":        {secret, "token.invalido.aqui"},
		"secret vacío":      {"", valido},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := pkgjwt.Parse(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "user-1", "", pkgjwt.RoleAdmin, "test", 60)
	assert.Error(t, err)
}

func TestIsKnownRole(t *testing.T) {
	assert.True(t, pkgjwt.IsKnownRole(pkgjwt.RoleAdmin))
	assert.True(t, pkgjwt.IsKnownRole(pkgjwt.RoleInspector))
	assert.True(t, pkgjwt.IsKnownRole(pkgjwt.RoleAccountant))
	assert.False(t, pkgjwt.IsKnownRole("bodeguero"))
	assert.False(t, pkgjwt.IsKnownRole(""))
}
