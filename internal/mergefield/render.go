// Package mergefield holds the document template catalog and replaces
// {{TOKEN}} placeholders with student and guardian data.
package mergefield

import (
	"html"
	"regexp"
	"time"

	"schooldocs/internal/model"
)

// Supported merge fields.
const (
	FieldToday         = "DATA_HOJE"
	FieldStudentName   = "NOME_ALUNO"
	FieldGuardianName  = "NOME_RESPONSAVEL"
	FieldGuardianCPF   = "CPF_RESPONSAVEL"
	FieldGuardianPhone = "TELEFONE_RESPONSAVEL"
	FieldGuardianEmail = "EMAIL_RESPONSAVEL"
)

// Field describes a merge field offered to template authors.
type Field struct {
	Token       string `json:"token"`
	Description string `json:"description"`
	Fallback    string `json:"fallback,omitempty"`
}

var fields = []Field{
	{Token: FieldToday, Description: "Data atual (dd/mm/aaaa)"},
	{Token: FieldStudentName, Description: "Nome do aluno", Fallback: "[Nome do Aluno]"},
	{Token: FieldGuardianName, Description: "Nome do responsável selecionado", Fallback: "[Nome do Responsável]"},
	{Token: FieldGuardianCPF, Description: "CPF do responsável selecionado", Fallback: "[CPF do Responsável]"},
	{Token: FieldGuardianPhone, Description: "Telefone do responsável selecionado", Fallback: "[Telefone do Responsável]"},
	{Token: FieldGuardianEmail, Description: "Email do responsável selecionado", Fallback: "[Email do Responsável]"},
}

// Fields lists the supported merge fields.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Fallback returns the placeholder text used when token has no value.
func Fallback(token string) string {
	for _, f := range fields {
		if f.Token == token {
			return f.Fallback
		}
	}
	return ""
}

// DateLayout is the pt-BR short date used for {{DATA_HOJE}}.
const DateLayout = "02/01/2006"

var tokenRe = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

// Renderer substitutes merge fields. The zero value is not usable; use NewRenderer.
type Renderer struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Renderer)

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer returns a Renderer that formats dates in loc.
func NewRenderer(loc *time.Location, opts ...Option) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	r := &Renderer{now: time.Now, loc: loc}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render replaces merge fields in content. {{DATA_HOJE}} is always filled;
// student and guardian fields only when rcpt has a selected guardian. Tokens
// without a value are left as they are.
func (r *Renderer) Render(content string, rcpt *model.Recipient) string {
	values := r.Values(rcpt)
	return tokenRe.ReplaceAllStringFunc(content, func(m string) string {
		token := m[2 : len(m)-2]
		if v, ok := values[token]; ok {
			return html.EscapeString(v)
		}
		return m
	})
}

// Values returns the raw (unescaped) substitution map for rcpt.
func (r *Renderer) Values(rcpt *model.Recipient) map[string]string {
	values := map[string]string{
		FieldToday: r.now().In(r.loc).Format(DateLayout),
	}
	if rcpt == nil || !rcpt.Guardian.Valid() {
		return values
	}

	g := rcpt.SelectedGuardian()
	if g == nil {
		g = &model.Guardian{}
	}
	values[FieldStudentName] = orFallback(rcpt.Student.Name, FieldStudentName)
	values[FieldGuardianName] = orFallback(g.Name, FieldGuardianName)
	values[FieldGuardianCPF] = orFallback(g.CPF, FieldGuardianCPF)
	values[FieldGuardianPhone] = orFallback(g.Phone, FieldGuardianPhone)
	values[FieldGuardianEmail] = orFallback(g.Email, FieldGuardianEmail)
	return values
}

func orFallback(v, token string) string {
	if v == "" {
		return Fallback(token)
	}
	return v
}
