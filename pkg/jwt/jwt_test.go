package jwt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/demeter-inventario/pkg/jwt"
)

const (
	secret  = "test-secret-key-for-unit-tests"
	issuer  = "demeter-inventario-test"
	userID  = "00000000-0000-0000-0000-000000000001"
	company = "00000000-0000-0000-0000-000000000002"
)

func TestGenerateAndParse_ConRole(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, company, "bodeguero", issuer, 60)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(secret, issuer, tok)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, company, claims.CompanyID)
	assert.Equal(t, "bodeguero", claims.Role)
}

func TestParse_Rechazos(t *testing.T) {
	valid, err := pkgjwt.Generate(secret, userID, company, "admin", issuer, 60)
	require.NoError(t, err)
	expired, err := pkgjwt.Generate(secret, userID, company, "admin", issuer, -1)
	require.NoError(t, err)
	noCompany, err := pkgjwt.Generate(secret, userID, "", "admin", issuer, 60)
	require.NoError(t, err)

	cases := map[string]struct{ secret, issuer, token string }{
		"expirado":          {secret, issuer, expired},
		"secret incorrecto": {"otro-secret-completamente-distinto", issuer, valid},
		"otro emisor":       {secret, "otro-servicio", valid},
		"sin empresa":       {secret, issuer, noCompany},
		"malformado":        {secret, issuer, "token.invalido.aqui"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pkgjwt.Parse(tc.secret, tc.issuer, tc.token)
			assert.True(t, errors.Is(err, pkgjwt.ErrInvalidToken), "obtenido %v", err)
		})
	}
}

func TestGenerate_SinSecret(t *testing.T) {
	_, err := pkgjwt.Generate("", userID, company, "admin", issuer, 60)
	assert.Error(t, err)
}
