package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	resp := Error("something went wrong")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something went wrong", resp.Error)
}

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]string{"key": "value"})
	assert.Equal(t, StatusOK, resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Error)
}

func TestValidationError(t *testing.T) {
	type request struct {
		Email   string `validate:"required,email"`
		SiteURL string `validate:"required,url"`
	}

	validate := validator.New()

	t.Run("пустые обязательные поля", func(t *testing.T) {
		err := validate.Struct(request{})
		require.Error(t, err)

		resp := ValidationError(err.(validator.ValidationErrors))
		assert.Equal(t, StatusError, resp.Status)
		assert.Contains(t, resp.Error, "field Email is a required field")
		assert.Contains(t, resp.Error, "field SiteURL is a required field")
	})

	t.Run("невалидный email и url", func(t *testing.T) {
		err := validate.Struct(request{Email: "not-an-email", SiteURL: "not-a-url"})
		require.Error(t, err)

		resp := ValidationError(err.(validator.ValidationErrors))
		assert.Contains(t, resp.Error, "field Email must be a valid email address")
		assert.Contains(t, resp.Error, "field SiteURL must be a valid url")
	})
}
