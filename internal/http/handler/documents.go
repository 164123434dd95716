package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schooldocs/internal/http/middleware"
	"schooldocs/internal/service"
	"schooldocs/internal/validate"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// dispatchFailure is the error envelope of a dispatch that stopped midway;
// Result lists what was sent before the failure.
type dispatchFailure struct {
	errorPayload
	Result *service.DispatchResult `json:"result,omitempty"`
}

// bindDocumentRequest decodes and validates the JSON body into req. When ok
// is false the error response has already been written and err is the
// result of writing it.
func bindDocumentRequest(c *fiber.Ctx, req *service.DocumentRequest) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return false, writeValidationError(c, err)
	}
	return true, nil
}

// PreviewDocuments renders the merged HTML for each recipient.
//
// @Summary  Preview documents
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    body body service.DocumentRequest true "template and recipients"
// @Success  200 {object} map[string]interface{}
// @Failure  400 {object} errorPayload
// @Router   /documents/preview [post]
func PreviewDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.DocumentRequest
		if ok, err := bindDocumentRequest(c, &req); !ok {
			return err
		}
		docs, err := svc.Preview(c.UserContext(), req)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": docs})
	}
}

// ExportPDF renders the document for at most one recipient as a PDF download.
//
// @Summary  Export document as PDF
// @Tags     documents
// @Accept   json
// @Produce  application/pdf
// @Param    body body service.DocumentRequest true "template and at most one recipient"
// @Success  200 {file} binary
// @Failure  400 {object} errorPayload
// @Router   /documents/pdf [post]
func ExportPDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.DocumentRequest
		if ok, err := bindDocumentRequest(c, &req); !ok {
			return err
		}
		doc, err := svc.ExportPDF(c.UserContext(), req)
		if err != nil {
			return serviceError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
		return c.Send(doc.Data)
	}
}

// DispatchDocuments sends the document to every recipient for signature.
//
// @Summary  Send documents for electronic signature
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    body body service.DocumentRequest true "template and recipients with guardians"
// @Success  200 {object} service.DispatchResult
// @Failure  400 {object} errorPayload
// @Failure  502 {object} dispatchFailure
// @Router   /documents/dispatch [post]
func DispatchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.DocumentRequest
		if ok, err := bindDocumentRequest(c, &req); !ok {
			return err
		}

		res, err := svc.Dispatch(c.UserContext(), req)
		if err == nil {
			return c.JSON(res)
		}

		var de *service.DispatchError
		if errors.As(err, &de) {
			return c.Status(fiber.StatusBadGateway).JSON(dispatchFailure{
				errorPayload: errorPayload{
					RequestID: middleware.GetRequestID(c),
					Error:     errorEnvelope{Code: "DISPATCH_FAILED", Message: de.Error()},
				},
				Result: res,
			})
		}
		if res != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dispatchFailure{
				errorPayload: errorPayload{
					RequestID: middleware.GetRequestID(c),
					Error:     errorEnvelope{Code: "DISPATCH_INTERRUPTED", Message: "dispatch interrupted"},
				},
				Result: res,
			})
		}
		return serviceError(c, err)
	}
}

// ListDispatches lists sent documents, newest first.
//
// @Summary  List dispatches
// @Tags     dispatches
// @Produce  json
// @Param    limit  query int false "page size" default(10)
// @Param    offset query int false "offset" default(0)
// @Success  200 {object} service.DispatchListResult
// @Failure  400 {object} errorPayload
// @Router   /dispatches [get]
func ListDispatches(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.History(c.UserContext(), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// ExportDispatches downloads the dispatch log as a spreadsheet.
//
// @Summary  Export dispatches as xlsx
// @Tags     dispatches
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success  200 {file} binary
// @Router   /dispatches/export [get]
func ExportDispatches(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="envios.xlsx"`)
		if err := svc.ExportHistory(c.UserContext(), c.Response().BodyWriter()); err != nil {
			c.Response().ResetBody()
			c.Response().Header.Del(fiber.HeaderContentDisposition)
			return serviceError(c, err)
		}
		return nil
	}
}

// ArchivedPDF redirects to a short-lived link of the archived PDF.
//
// @Summary  Download an archived dispatch PDF
// @Tags     dispatches
// @Param    id path string true "dispatch id"
// @Success  302
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /dispatches/{id}/pdf [get]
func ArchivedPDF(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.ArchivedURL(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Redirect(url, fiber.StatusFound)
	}
}
