package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK(t *testing.T) {
	resp := OK()
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestStatusOKWithData(t *testing.T) {
	resp := StatusOKWithData(map[string]string{"plan": "trial"})
	assert.Equal(t, StatusOK, resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("invalid request body")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestPolicyError(t *testing.T) {
	resp := PolicyError("feature_locked", "Feature 'leagues' requires premium.")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "feature_locked", resp.Code)
	assert.Equal(t, "Feature 'leagues' requires premium.", resp.Error)
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
		Role     string `validate:"oneof=user admin owner"`
	}

	validate := validator.New()
	err := validate.Struct(payload{Email: "not-an-email", Password: "short", Role: "guest"})
	require.Error(t, err)

	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	resp := ValidationError(errs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Password is too short")
	assert.Contains(t, resp.Error, "field Role has an unsupported value")
}

func TestValidationError_Required(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}

	validate := validator.New()
	err := validate.Struct(payload{})

	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)

	resp := ValidationError(errs)
	assert.Equal(t, "field Name is a required field", resp.Error)
}
