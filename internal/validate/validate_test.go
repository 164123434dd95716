package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooldocs/internal/model"
)

type item struct {
	Guardian model.GuardianKind `json:"guardian" validate:"guardian_kind"`
}

type request struct {
	TemplateID string `json:"template_id" validate:"notblank"`
	Items      []item `json:"items" validate:"required,min=1,dive"`
}

func TestStruct_OK(t *testing.T) {
	err := Struct(request{
		TemplateID: "grau_leve",
		Items:      []item{{Guardian: model.GuardianMother}},
	})
	assert.NoError(t, err)
}

func TestStruct_Fields(t *testing.T) {
	err := Struct(request{
		TemplateID: "   ",
		Items:      []item{{Guardian: "avo"}},
	})
	require.Error(t, err)

	fields := Fields(err)
	assert.Equal(t, "template_id cannot be blank", fields["template_id"])
	assert.Equal(t, "guardian must be one of: pai, mae", fields["items[0].guardian"])
}

func TestStruct_Required(t *testing.T) {
	err := Struct(request{TemplateID: "grau_leve"})
	fields := Fields(err)
	assert.Equal(t, "items is a required field", fields["items"])
}

func TestFields_NotValidation(t *testing.T) {
	assert.Nil(t, Fields(errors.New("boom")))
	assert.Nil(t, Fields(nil))
}
