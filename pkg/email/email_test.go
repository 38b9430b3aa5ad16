package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ana@example.com", Normalize("  Ana@Example.COM "))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ana@example.com"))
	assert.True(t, Valid(" ana.souza+evento@example.com.br "))
	assert.False(t, Valid("ana@localhost"))
	assert.False(t, Valid("Ana <ana@example.com>"))
	assert.False(t, Valid("not-an-email"))
	assert.False(t, Valid(""))
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "anasouza", LocalPart("Ana.Souza@example.com", 20))
	assert.Equal(t, "anas", LocalPart("ana.souza@example.com", 4))
}

func TestDeriveNameFromEmail(t *testing.T) {
	assert.Equal(t, "Maria Souza", DeriveNameFromEmail("maria.souza@example.com"))
	assert.Equal(t, "Joao", DeriveNameFromEmail("JOAO99@example.com"))
	assert.Equal(t, "Participante", DeriveNameFromEmail("123@example.com"))
}
