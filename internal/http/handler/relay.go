package handler

import (
	"github.com/gofiber/fiber/v2"

	"schooldocs/internal/service"
	"schooldocs/internal/webhook"
)

// RelaySignature forwards a prepared payload to the signature webhook and
// relays the outcome. Its body shape is fixed by existing clients and does
// not use the standard error envelope.
//
// @Summary  Relay a signature request to the webhook
// @Tags     relay
// @Accept   json
// @Produce  json
// @Param    body body webhook.Payload true "signature payload"
// @Success  200 {object} service.RelayResult
// @Failure  400 {object} service.RelayResult
// @Failure  500 {object} service.RelayResult
// @Router   /relay/signature [post]
func RelaySignature(svc service.RelayService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p webhook.Payload
		if err := c.BodyParser(&p); err != nil {
			res := service.RelayInternalFailure(err)
			return c.Status(res.Status).JSON(res)
		}
		res := svc.Relay(c.UserContext(), p)
		return c.Status(res.Status).JSON(res)
	}
}
