package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/pkg/jwt"
)

func TestGenerateParse(t *testing.T) {
	token, err := jwt.Generate("secreto", "user-1", "admin", "facturador-afip", 5)
	require.NoError(t, err)

	userID, role, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "admin", role)
}

func TestParse_Errores(t *testing.T) {
	token, err := jwt.Generate("secreto", "user-1", "admin", "facturador-afip", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro-secreto", token)
	assert.Error(t, err, "firma incorrecta")

	expired, err := jwt.Generate("secreto", "user-1", "admin", "facturador-afip", -1)
	require.NoError(t, err)
	_, _, err = jwt.Parse("secreto", expired)
	assert.Error(t, err, "token expirado")

	_, _, err = jwt.Parse("", token)
	assert.Error(t, err)

	_, err = jwt.Generate("", "user-1", "admin", "x", 5)
	assert.Error(t, err)
}
