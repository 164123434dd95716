// Package spreadsheet reads student directory exports and writes dispatch
// reports as xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"schooldocs/internal/model"
)

var (
	ErrNoSheet      = errors.New("workbook has no sheets")
	ErrMissingCodes = errors.New("header must contain codigo_aluno and nome_do_aluno")
)

// Column headers of the directory export, matched case-insensitively.
const (
	colCode            = "codigo_aluno"
	colName            = "nome_do_aluno"
	colClass           = "turma"
	colFatherName      = "nome_pai"
	colFatherCPF       = "cpf_pai"
	colFatherDDD       = "ddd_pai"
	colFatherPhone     = "celular_pai"
	colFatherEmail     = "email_pai"
	colMotherName      = "nome_da_mae"
	colMotherCPF       = "cpf_mae"
	colMotherDDD       = "ddd_mae"
	colMotherPhone     = "celular_mae"
	colMotherEmail     = "email_mae"
	colBillingWhatsApp = "whatsapp_fin"
)

// ImportResult holds parsed rows and the 1-based spreadsheet row numbers
// that were skipped for lacking a code or a name.
type ImportResult struct {
	Students []model.RawStudent
	Skipped  []int
}

// ImportStudents parses the first sheet of an xlsx workbook. The first row
// is the header; columns may appear in any order.
func ImportStudents(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &ImportResult{Students: []model.RawStudent{}}, nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx[colCode]; !ok {
		return nil, ErrMissingCodes
	}
	if _, ok := idx[colName]; !ok {
		return nil, ErrMissingCodes
	}

	res := &ImportResult{Students: make([]model.RawStudent, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		cell := func(col string) string {
			j, ok := idx[col]
			if !ok || j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		code, err := strconv.ParseInt(cell(colCode), 10, 64)
		name := cell(colName)
		if err != nil || code <= 0 || name == "" {
			res.Skipped = append(res.Skipped, i+2)
			continue
		}

		res.Students = append(res.Students, model.RawStudent{
			Code:            code,
			Name:            name,
			ClassName:       cell(colClass),
			FatherName:      cell(colFatherName),
			FatherCPF:       cell(colFatherCPF),
			FatherDDD:       cell(colFatherDDD),
			FatherPhone:     cell(colFatherPhone),
			FatherEmail:     cell(colFatherEmail),
			MotherName:      cell(colMotherName),
			MotherCPF:       cell(colMotherCPF),
			MotherDDD:       cell(colMotherDDD),
			MotherPhone:     cell(colMotherPhone),
			MotherEmail:     cell(colMotherEmail),
			BillingWhatsApp: cell(colBillingWhatsApp),
		})
	}
	return res, nil
}

const dispatchSheet = "Envios"

var dispatchHeader = []any{"ID", "Data", "Código", "Aluno", "Responsável", "Modelo", "Status", "Erro"}

// ExportDispatches writes the dispatch log as a single-sheet workbook.
// Timestamps are rendered in loc.
func ExportDispatches(w io.Writer, items []model.Dispatch, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), dispatchSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(dispatchSheet, "A1", &dispatchHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, d := range items {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			d.ID,
			d.CreatedAt.In(loc).Format("02/01/2006 15:04"),
			d.StudentCode,
			d.StudentName,
			d.GuardianName,
			d.TemplateID,
			string(d.Status),
			d.Error,
		}
		if err := f.SetSheetRow(dispatchSheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(dispatchSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(dispatchSheet, "D", "E", 32); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
