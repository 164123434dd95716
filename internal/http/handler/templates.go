package handler

import (
	"github.com/gofiber/fiber/v2"

	"schooldocs/internal/mergefield"
	"schooldocs/internal/service"
)

type templateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListTemplates lists the document templates without their bodies.
//
// @Summary  List templates
// @Tags     templates
// @Produce  json
// @Success  200 {object} map[string]interface{}
// @Router   /templates [get]
func ListTemplates(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list := svc.Templates()
		out := make([]templateSummary, 0, len(list))
		for _, t := range list {
			out = append(out, templateSummary{ID: t.ID, Name: t.Name, Description: t.Description})
		}
		return c.JSON(fiber.Map{"data": out})
	}
}

// TemplateFields lists the merge fields templates may use.
//
// @Summary  List merge fields
// @Tags     templates
// @Produce  json
// @Success  200 {object} map[string]interface{}
// @Router   /templates/fields [get]
func TemplateFields() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": mergefield.Fields()})
	}
}

// GetTemplate returns one template with its HTML body.
//
// @Summary  Get template
// @Tags     templates
// @Produce  json
// @Param    id path string true "template id"
// @Success  200 {object} model.Template
// @Failure  404 {object} errorPayload
// @Router   /templates/{id} [get]
func GetTemplate(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := svc.Template(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(t)
	}
}
