package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

func TestValidateBytesAccepts(t *testing.T) {
	v, err := NewValidator(testSchema)
	require.NoError(t, err)

	result := v.ValidateBytes([]byte(`{"message":"hello"}`))
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateBytesRejectsMissingField(t *testing.T) {
	v := MustValidator(testSchema)

	result := v.ValidateBytes([]byte(`{}`))
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "message")
}

func TestValidateBytesRejectsUnknownField(t *testing.T) {
	v := MustValidator(testSchema)

	result := v.ValidateBytes([]byte(`{"message":"hi","extra":1}`))
	assert.False(t, result.Valid)
}

func TestValidateBytesRejectsMalformedJSON(t *testing.T) {
	v := MustValidator(testSchema)

	result := v.ValidateBytes([]byte(`{not json`))
	require.False(t, result.Valid)
	assert.Equal(t, "(body)", result.Errors[0].Field)
}

func TestNewValidatorRejectsBadSchema(t *testing.T) {
	_, err := NewValidator(`{"type": 42}`)
	assert.Error(t, err)
}

func TestMustValidatorPanicsOnBadSchema(t *testing.T) {
	assert.Panics(t, func() {
		MustValidator(`{"type": 42}`)
	})
}
