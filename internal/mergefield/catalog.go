package mergefield

import (
	"embed"
	"errors"
	"fmt"

	"schooldocs/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrTemplateNotFound = errors.New("template not found")

type entry struct {
	id          string
	name        string
	description string
}

// Order matters: it is the order templates are offered to staff.
var builtins = []entry{
	{
		id:          "grau_leve",
		name:        "Retirado pelo responsável",
		description: "Comunicado para lesão leve sofrida pelo aluno",
	},
	{
		id:          "contrato_servicos",
		name:        "Contrato de Prestação de Serviços",
		description: "Contrato padrão para prestação de serviços educacionais",
	},
	{
		id:          "comunicado_geral",
		name:        "Comunicado Geral",
		description: "Modelo para comunicados gerais aos responsáveis",
	},
}

// Catalog is the read-only set of document templates.
type Catalog struct {
	items []model.Template
	byID  map[string]int
}

// NewCatalog loads the built-in templates.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(builtins))}
	for _, e := range builtins {
		b, err := templateFS.ReadFile("templates/" + e.id + ".html")
		if err != nil {
			return nil, fmt.Errorf("load template %s: %w", e.id, err)
		}
		c.byID[e.id] = len(c.items)
		c.items = append(c.items, model.Template{
			ID:          e.id,
			Name:        e.name,
			Description: e.description,
			Content:     string(b),
		})
	}
	return c, nil
}

// List returns every template in presentation order.
func (c *Catalog) List() []model.Template {
	out := make([]model.Template, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (model.Template, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Template{}, ErrTemplateNotFound
	}
	return c.items[i], nil
}
