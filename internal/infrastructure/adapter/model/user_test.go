package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestUser_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		user      User
		wantField string
	}{
		{"Valid", User{ID: "user_1", Email: "a@example.com", AvailableGenerations: 20}, ""},
		{"MissingID", User{Email: "a@example.com"}, "ID"},
		{"BadEmail", User{ID: "user_1", Email: "not-an-email"}, "Email"},
		{"LongID", User{ID: strings.Repeat("x", 256), Email: "a@example.com"}, "ID"},
		{"NegativeBalance", User{ID: "user_1", Email: "a@example.com", AvailableGenerations: -1}, "AvailableGenerations"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.user.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verrs validator.ValidationErrors
			if assert.True(t, errors.As(err, &verrs)) {
				assert.Equal(t, tc.wantField, verrs[0].Field())
			}
		})
	}
}
