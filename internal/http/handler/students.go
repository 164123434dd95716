package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"schooldocs/internal/service"
	"schooldocs/internal/spreadsheet"
)

// parseCodes reads a comma-separated list of student codes.
func parseCodes(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// decodeParam unescapes a path segment such as "5%C2%BA%20A".
func decodeParam(raw string) (string, error) {
	return url.PathUnescape(raw)
}

// SearchStudents finds students by name.
//
// @Summary  Search students by name
// @Tags     students
// @Produce  json
// @Param    q       query string true  "name fragment (at least 2 characters)"
// @Param    exclude query string false "comma-separated codes already selected"
// @Success  200 {object} map[string]interface{}
// @Failure  400 {object} errorPayload
// @Router   /students [get]
func SearchStudents(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exclude, err := parseCodes(c.Query("exclude"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EXCLUDE", "exclude must be a comma-separated list of codes")
		}

		items, err := svc.Search(c.UserContext(), c.Query("q"), exclude)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	}
}

// ImportStudents loads the student directory from an xlsx upload (field: file).
//
// @Summary  Import students from a spreadsheet
// @Tags     students
// @Accept   multipart/form-data
// @Produce  json
// @Param    file formData file true "xlsx directory export"
// @Success  200 {object} map[string]interface{}
// @Failure  400 {object} errorPayload
// @Router   /students/import [post]
func ImportStudents(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := spreadsheet.ImportStudents(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_SPREADSHEET", err.Error())
		}

		n, err := svc.Import(c.UserContext(), res.Students)
		if err != nil {
			return serviceError(c, err)
		}
		skipped := res.Skipped
		if skipped == nil {
			skipped = []int{}
		}
		return c.JSON(fiber.Map{"imported": n, "skipped_rows": skipped})
	}
}

// ListClasses returns the class names.
//
// @Summary  List classes
// @Tags     students
// @Produce  json
// @Success  200 {object} map[string]interface{}
// @Router   /classes [get]
func ListClasses(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		classes, err := svc.Classes(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": classes})
	}
}

// ClassRoster returns a whole class with guardians preselected.
//
// @Summary  Class roster with preselected guardians
// @Tags     students
// @Produce  json
// @Param    class   path  string true  "class name"
// @Param    exclude query string false "comma-separated codes already selected"
// @Success  200 {object} map[string]interface{}
// @Router   /classes/{class}/students [get]
func ClassRoster(svc service.StudentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exclude, err := parseCodes(c.Query("exclude"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EXCLUDE", "exclude must be a comma-separated list of codes")
		}
		class, err := decodeParam(c.Params("class"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CLASS", "invalid class name")
		}

		items, err := svc.ClassRoster(c.UserContext(), class, exclude)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}
