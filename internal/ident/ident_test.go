package ident

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Accepts(t *testing.T) {
	for _, name := range []string{"users", "User_Name", "_x", "a1", "123", "ALLCAPS", "snake_case_2"} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, Validate(name, LabelTable))
			assert.True(t, IsSafe(name))
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []string{
		"",
		"bad-name",
		"users;",
		"users; DROP TABLE users",
		"o'brien",
		`"quoted"`,
		"with space",
		"tab\tname",
		"new\nline",
		"dotted.name",
		"naïve",
		"semi;colon",
		"--",
		"a/*b*/",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(name, LabelColumn)
			require.Error(t, err)
			assert.False(t, IsSafe(name))

			var idErr *Error
			require.True(t, errors.As(err, &idErr))
			assert.Equal(t, name, idErr.Name)
			assert.Equal(t, LabelColumn, idErr.Context)
			assert.True(t, errors.Is(err, ErrInvalidIdentifier))
			assert.True(t, IsIdentifierError(err))
		})
	}
}

func TestError_Message(t *testing.T) {
	err := Validate("bad-name", LabelTable)
	assert.Equal(t, `invalid table name "bad-name": only letters, digits and underscore are allowed`, err.Error())

	err = Validate("", LabelIndex)
	assert.Equal(t, "invalid index name: must not be empty", err.Error())
}

func TestQuotePath(t *testing.T) {
	got, err := QuotePath("users.name", LabelColumn)
	require.NoError(t, err)
	assert.Equal(t, `"users"."name"`, got)

	got, err = QuotePath("age", LabelColumn)
	require.NoError(t, err)
	assert.Equal(t, `"age"`, got)

	_, err = QuotePath("users..name", LabelColumn)
	require.Error(t, err)

	_, err = QuotePath("users.na me", LabelColumn)
	var idErr *Error
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, "users.na me", idErr.Name)
}
