package model

// GuardianKind identifies which parent a document is addressed to.
type GuardianKind string

const (
	GuardianFather GuardianKind = "pai"
	GuardianMother GuardianKind = "mae"
)

// Valid reports whether k is one of the known guardian kinds.
func (k GuardianKind) Valid() bool {
	return k == GuardianFather || k == GuardianMother
}

// Guardian is a parent or legal guardian of a student.
type Guardian struct {
	Kind  GuardianKind `json:"kind"`
	Name  string       `json:"name"`
	CPF   string       `json:"cpf"`
	Phone string       `json:"phone"`
	Email string       `json:"email"`
}

// Student is a flat student record as kept by the school directory.
type Student struct {
	Code            int64     `json:"code"`
	Name            string    `json:"name"`
	ClassName       string    `json:"class_name"`
	Father          *Guardian `json:"father,omitempty"`
	Mother          *Guardian `json:"mother,omitempty"`
	BillingWhatsApp string    `json:"billing_whatsapp"`
}

// Guardians returns the guardians present on the record, father first.
func (s Student) Guardians() []Guardian {
	out := make([]Guardian, 0, 2)
	if s.Father != nil && s.Father.Name != "" {
		out = append(out, *s.Father)
	}
	if s.Mother != nil && s.Mother.Name != "" {
		out = append(out, *s.Mother)
	}
	return out
}

// Guardian returns the guardian of the given kind, or nil.
func (s Student) Guardian(kind GuardianKind) *Guardian {
	var g *Guardian
	switch kind {
	case GuardianFather:
		g = s.Father
	case GuardianMother:
		g = s.Mother
	}
	if g == nil || g.Name == "" {
		return nil
	}
	return g
}

// Recipient is a selected student paired with the guardian who signs.
type Recipient struct {
	Student  Student      `json:"student"`
	Guardian GuardianKind `json:"guardian"`
}

// SelectedGuardian returns the chosen guardian, or nil when none is selected.
func (r Recipient) SelectedGuardian() *Guardian {
	return r.Student.Guardian(r.Guardian)
}
