package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestServiceVerifier(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	v := &ServiceVerifier{Tokens: map[string]string{"compute": string(hash)}}

	assert.NoError(t, v.Verify("compute", "s3cret"))
	assert.ErrorIs(t, v.Verify("compute", "wrong"), ErrIncorrectToken)
	assert.ErrorIs(t, v.Verify("storage", "s3cret"), ErrUnknownClientKey)
	assert.ErrorIs(t, v.Verify("", "s3cret"), ErrTokenRequired)
	assert.ErrorIs(t, v.Verify("compute", ""), ErrTokenRequired)
}

func TestParseServiceTokens(t *testing.T) {
	tokens := ParseServiceTokens("compute:$2a$10$abc, storage:$2a$10$def")
	assert.Equal(t, map[string]string{
		"compute": "$2a$10$abc",
		"storage": "$2a$10$def",
	}, tokens)
}

func TestParseServiceTokens_SkipsMalformed(t *testing.T) {
	tokens := ParseServiceTokens("compute:$2a$10$abc,,nohash,:orphan, ")
	assert.Equal(t, map[string]string{"compute": "$2a$10$abc"}, tokens)
}

func TestParseServiceTokens_Empty(t *testing.T) {
	assert.Empty(t, ParseServiceTokens(""))
}
