package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawStudent_Student(t *testing.T) {
	raw := RawStudent{
		Code:        7,
		Name:        " Ana Souza ",
		ClassName:   "5A",
		FatherName:  "Carlos",
		FatherCPF:   "null",
		FatherDDD:   "11",
		FatherPhone: "null",
		MotherName:  "Maria",
		MotherCPF:   "123",
		MotherDDD:   "11",
		MotherPhone: "988887777",
	}

	s := raw.Student()
	assert.Equal(t, "Ana Souza", s.Name)
	require.NotNil(t, s.Father)
	assert.Equal(t, "", s.Father.CPF)
	assert.Equal(t, "", s.Father.Phone)
	require.NotNil(t, s.Mother)
	assert.Equal(t, "11988887777", s.Mother.Phone)
	assert.Equal(t, GuardianMother, s.Mother.Kind)
}

func TestRawStudent_MissingGuardian(t *testing.T) {
	s := RawStudent{Code: 1, Name: "Bia", FatherName: "null", MotherName: ""}.Student()
	assert.Nil(t, s.Father)
	assert.Nil(t, s.Mother)
	assert.Empty(t, s.Guardians())
}

func TestStudent_Guardians(t *testing.T) {
	s := Student{
		Father: &Guardian{Kind: GuardianFather, Name: "Carlos"},
		Mother: &Guardian{Kind: GuardianMother, Name: "Maria"},
	}
	g := s.Guardians()
	require.Len(t, g, 2)
	assert.Equal(t, GuardianFather, g[0].Kind)
	assert.Equal(t, "Maria", s.Guardian(GuardianMother).Name)
	assert.Nil(t, s.Guardian("tio"))
}

func TestRecipient_SelectedGuardian(t *testing.T) {
	r := Recipient{Student: Student{Mother: &Guardian{Name: "Maria"}}, Guardian: GuardianFather}
	assert.Nil(t, r.SelectedGuardian())

	r.Guardian = GuardianMother
	assert.Equal(t, "Maria", r.SelectedGuardian().Name)
	assert.True(t, GuardianMother.Valid())
	assert.False(t, GuardianKind("").Valid())
}
