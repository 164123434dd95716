package model

import "strings"

// RawStudent mirrors a row of the student directory as it is stored and
// imported: parents are flattened, phones split into DDD and number, and
// missing values may hold the literal "null".
type RawStudent struct {
	Code            int64
	Name            string
	ClassName       string
	FatherName      string
	FatherCPF       string
	FatherDDD       string
	FatherPhone     string
	FatherEmail     string
	MotherName      string
	MotherCPF       string
	MotherDDD       string
	MotherPhone     string
	MotherEmail     string
	BillingWhatsApp string
}

// Student normalises the row into a Student.
func (r RawStudent) Student() Student {
	return Student{
		Code:            r.Code,
		Name:            clean(r.Name),
		ClassName:       clean(r.ClassName),
		Father:          guardian(GuardianFather, r.FatherName, r.FatherCPF, r.FatherDDD, r.FatherPhone, r.FatherEmail),
		Mother:          guardian(GuardianMother, r.MotherName, r.MotherCPF, r.MotherDDD, r.MotherPhone, r.MotherEmail),
		BillingWhatsApp: clean(r.BillingWhatsApp),
	}
}

func guardian(kind GuardianKind, name, cpf, ddd, phone, email string) *Guardian {
	name = clean(name)
	if name == "" {
		return nil
	}
	g := &Guardian{
		Kind:  kind,
		Name:  name,
		CPF:   clean(cpf),
		Email: clean(email),
	}
	ddd, phone = clean(ddd), clean(phone)
	if ddd != "" && phone != "" {
		g.Phone = ddd + phone
	}
	return g
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}
