package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"schooldocs/internal/mergefield"
	"schooldocs/internal/metrics"
	"schooldocs/internal/model"
	"schooldocs/internal/repository"
	"schooldocs/internal/spreadsheet"
	"schooldocs/internal/storage"
	"schooldocs/internal/webhook"
)

var (
	ErrTemplateRequired = errors.New("a document template must be selected")
	ErrNoRecipients     = errors.New("at least one student must be selected")
	ErrGuardianRequired = errors.New("a guardian must be selected for every student")
	ErrSingleRecipient  = errors.New("pdf export takes at most one student")
	ErrWebhookDisabled  = errors.New("signature webhook is not configured")
	ErrIDRequired       = errors.New("id is required")
	ErrDispatchNotFound = errors.New("dispatch not found")
	ErrNotArchived      = errors.New("dispatch has no archived document")
	ErrTemplateNotFound = mergefield.ErrTemplateNotFound
)

const (
	// MaxExportRows bounds the dispatch report.
	MaxExportRows = 5000
	// ArchiveURLExpiry is how long a presigned archive link stays valid.
	ArchiveURLExpiry = 15 * time.Minute

	whatsAppFallback = "[WhatsApp não informado]"
)

// RecipientRef names a student by code and the guardian who should sign.
type RecipientRef struct {
	StudentCode int64              `json:"student_code" validate:"required,gt=0"`
	Guardian    model.GuardianKind `json:"guardian" validate:"omitempty,guardian_kind"`
}

// DocumentRequest selects a template, optionally edited content, and the
// recipients of the document.
type DocumentRequest struct {
	TemplateID string         `json:"template_id"`
	Content    string         `json:"content,omitempty"`
	Recipients []RecipientRef `json:"recipients" validate:"omitempty,dive"`
}

// RenderedDocument is one merged document ready for preview.
type RenderedDocument struct {
	StudentCode  int64  `json:"student_code,omitempty"`
	StudentName  string `json:"student_name,omitempty"`
	GuardianName string `json:"guardian_name,omitempty"`
	HTML         string `json:"html"`
}

// PDFDocument is a rendered PDF and the file name it should be saved as.
type PDFDocument struct {
	Filename string
	Data     []byte
}

// DispatchResult reports the documents sent by one Dispatch call.
type DispatchResult struct {
	Sent       int              `json:"sent"`
	Total      int              `json:"total"`
	Message    string           `json:"message"`
	Dispatches []model.Dispatch `json:"dispatches"`
}

// DispatchListResult is the service-level DTO for paginated dispatches.
type DispatchListResult struct {
	Items []model.Dispatch `json:"data"`
	Total int              `json:"total"`
}

// DispatchError reports the student whose document could not be sent.
// Documents before it were delivered; none after it were attempted.
type DispatchError struct {
	Student string
	Sent    int
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("Erro ao enviar documento para %s: %s", e.Student, Reason(e.Err))
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Reason is the user-facing text for a send failure.
func Reason(err error) string {
	var se *webhook.StatusError
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}

// PDFRenderer converts merged HTML into PDF bytes.
type PDFRenderer interface {
	Render(html string) ([]byte, error)
}

// DocumentService defines the document workflow: preview, export and
// dispatch for electronic signature.
type DocumentService interface {
	// Templates lists the available templates.
	Templates() []model.Template

	// Template returns a template by ID.
	Template(id string) (model.Template, error)

	// Preview merges the document for every recipient and wraps each on the
	// letterhead page. With no recipients a single document is returned
	// with only the date filled in.
	Preview(ctx context.Context, req DocumentRequest) ([]RenderedDocument, error)

	// ExportPDF renders the document for at most one recipient.
	ExportPDF(ctx context.Context, req DocumentRequest) (*PDFDocument, error)

	// Dispatch sends one document per recipient to the signature webhook,
	// in order, pausing between sends. It stops at the first failure and
	// returns the partial result together with a *DispatchError.
	Dispatch(ctx context.Context, req DocumentRequest) (*DispatchResult, error)

	// History returns dispatches newest first.
	History(ctx context.Context, limit, offset int) (*DispatchListResult, error)

	// ExportHistory writes the most recent dispatches as an xlsx report.
	ExportHistory(ctx context.Context, w io.Writer) error

	// ArchivedURL returns a short-lived download link for a dispatched PDF.
	ArchivedURL(ctx context.Context, id string) (string, error)
}

// DocumentDeps collects the collaborators of DocumentService. Archive,
// Sender and Metrics are optional.
type DocumentDeps struct {
	Catalog    *mergefield.Catalog
	Merge      *mergefield.Renderer
	PDF        PDFRenderer
	Students   repository.StudentRepository
	Dispatches repository.DispatchRepository
	Archive    storage.Archive
	Sender     webhook.Sender
	Metrics    *metrics.Dispatch
	Delay      time.Duration
	Location   *time.Location
	Log        *slog.Logger
	// PreviewBackground is the letterhead image URL used in HTML previews.
	PreviewBackground string
}

type documentService struct {
	DocumentDeps
	now func() time.Time
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(deps DocumentDeps) DocumentService {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Delay < 0 {
		deps.Delay = 0
	}
	return &documentService{DocumentDeps: deps, now: time.Now}
}

func (s *documentService) Templates() []model.Template {
	return s.Catalog.List()
}

func (s *documentService) Template(id string) (model.Template, error) {
	return s.Catalog.Get(id)
}

// content resolves the HTML to merge: edited content wins over the stored template.
func (s *documentService) content(req DocumentRequest) (string, error) {
	if strings.TrimSpace(req.TemplateID) == "" {
		if strings.TrimSpace(req.Content) != "" {
			return req.Content, nil
		}
		return "", ErrTemplateRequired
	}
	tpl, err := s.Catalog.Get(req.TemplateID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Content) != "" {
		return req.Content, nil
	}
	return tpl.Content, nil
}

func (s *documentService) recipients(ctx context.Context, refs []RecipientRef, requireGuardian bool) ([]model.Recipient, error) {
	out := make([]model.Recipient, 0, len(refs))
	for _, ref := range refs {
		st, err := s.Students.FindByCode(ctx, ref.StudentCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %d", ErrStudentNotFound, ref.StudentCode)
			}
			return nil, fmt.Errorf("load student %d: %w", ref.StudentCode, err)
		}
		if requireGuardian && !ref.Guardian.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrGuardianRequired, st.Name)
		}
		out = append(out, model.Recipient{Student: *st, Guardian: ref.Guardian})
	}
	return out, nil
}

func (s *documentService) Preview(ctx context.Context, req DocumentRequest) ([]RenderedDocument, error) {
	content, err := s.content(req)
	if err != nil {
		return nil, err
	}
	rcpts, err := s.recipients(ctx, req.Recipients, false)
	if err != nil {
		return nil, err
	}

	if len(rcpts) == 0 {
		return []RenderedDocument{{
			HTML: mergefield.Wrap(s.Merge.Render(content, nil), s.PreviewBackground),
		}}, nil
	}

	out := make([]RenderedDocument, 0, len(rcpts))
	for i := range rcpts {
		r := &rcpts[i]
		doc := RenderedDocument{
			StudentCode: r.Student.Code,
			StudentName: r.Student.Name,
			HTML:        mergefield.Wrap(s.Merge.Render(content, r), s.PreviewBackground),
		}
		if g := r.SelectedGuardian(); g != nil {
			doc.GuardianName = g.Name
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *documentService) ExportPDF(ctx context.Context, req DocumentRequest) (*PDFDocument, error) {
	content, err := s.content(req)
	if err != nil {
		return nil, err
	}
	if len(req.Recipients) > 1 {
		return nil, ErrSingleRecipient
	}
	rcpts, err := s.recipients(ctx, req.Recipients, false)
	if err != nil {
		return nil, err
	}

	var rcpt *model.Recipient
	name := "documento"
	if req.TemplateID != "" {
		name = req.TemplateID
	}
	if len(rcpts) == 1 {
		rcpt = &rcpts[0]
		name = fmt.Sprintf("%s_%d", name, rcpt.Student.Code)
	}

	data, err := s.PDF.Render(s.Merge.Render(content, rcpt))
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &PDFDocument{Filename: name + ".pdf", Data: data}, nil
}

func (s *documentService) Dispatch(ctx context.Context, req DocumentRequest) (*DispatchResult, error) {
	if strings.TrimSpace(req.TemplateID) == "" {
		return nil, ErrTemplateRequired
	}
	if len(req.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if s.Sender == nil {
		return nil, ErrWebhookDisabled
	}
	content, err := s.content(req)
	if err != nil {
		return nil, err
	}
	rcpts, err := s.recipients(ctx, req.Recipients, true)
	if err != nil {
		return nil, err
	}

	res := &DispatchResult{Total: len(rcpts), Dispatches: make([]model.Dispatch, 0, len(rcpts))}
	log := s.Log.With("template_id", req.TemplateID, "total", len(rcpts))
	log.InfoContext(ctx, "dispatch_start")

	for i := range rcpts {
		r := &rcpts[i]
		d, err := s.sendOne(ctx, req.TemplateID, content, r)
		if d != nil {
			res.Dispatches = append(res.Dispatches, *d)
		}
		if err != nil && ctx.Err() != nil {
			log.WarnContext(ctx, "dispatch_interrupted", "sent", res.Sent, "error", err.Error())
			return res, fmt.Errorf("dispatch interrupted after %d of %d: %w", res.Sent, res.Total, ctx.Err())
		}
		if err != nil {
			log.ErrorContext(ctx, "dispatch_failed",
				"student_code", r.Student.Code,
				"sent", res.Sent,
				"error", err.Error(),
			)
			return res, &DispatchError{Student: r.Student.Name, Sent: res.Sent, Err: err}
		}
		res.Sent++

		if i < len(rcpts)-1 {
			if err := wait(ctx, s.Delay); err != nil {
				log.WarnContext(ctx, "dispatch_interrupted", "sent", res.Sent, "error", err.Error())
				return res, fmt.Errorf("dispatch interrupted after %d of %d: %w", res.Sent, res.Total, err)
			}
		}
	}

	res.Message = dispatchMessage(res.Total)
	log.InfoContext(ctx, "dispatch_success", "sent", res.Sent)
	return res, nil
}

// sendOne renders, archives and sends the document of one recipient, then
// records the attempt. The returned Dispatch is nil only when nothing was
// attempted.
func (s *documentService) sendOne(ctx context.Context, templateID, content string, r *model.Recipient) (*model.Dispatch, error) {
	start := time.Now()
	g := r.SelectedGuardian()
	if g == nil {
		g = &model.Guardian{}
	}

	data, err := s.PDF.Render(s.Merge.Render(content, r))
	if err != nil {
		s.Metrics.Observe(templateID, model.DispatchFailed, time.Since(start))
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	d := &model.Dispatch{
		ID:           uuid.New().String(),
		StudentCode:  r.Student.Code,
		StudentName:  r.Student.Name,
		GuardianName: g.Name,
		TemplateID:   templateID,
		Status:       model.DispatchSent,
	}
	d.StoragePath = s.archive(ctx, d, data)

	payload := webhook.Payload{
		NomeResponsavel: orDefault(g.Name, mergefield.Fallback(mergefield.FieldGuardianName)),
		CPFResponsavel:  orDefault(g.CPF, mergefield.Fallback(mergefield.FieldGuardianCPF)),
		WhatsApp:        orDefault(r.Student.BillingWhatsApp, whatsAppFallback),
		Base64:          base64.StdEncoding.EncodeToString(data),
		NomeAluno:       r.Student.Name,
	}
	_, sendErr := s.Sender.Send(ctx, payload)
	if sendErr != nil {
		d.Status = model.DispatchFailed
		d.Error = Reason(sendErr)
	}
	d.CreatedAt = s.now().UTC()
	s.Metrics.Observe(templateID, d.Status, time.Since(start))

	if stored, err := s.Dispatches.Create(ctx, d); err != nil {
		s.Log.ErrorContext(ctx, "dispatch_record_failed", "dispatch_id", d.ID, "error", err.Error())
	} else if stored != nil {
		d = stored
	}
	return d, sendErr
}

// archive stores the PDF and returns its key, or "" when archiving is not
// configured or the upload failed.
func (s *documentService) archive(ctx context.Context, d *model.Dispatch, data []byte) string {
	if s.Archive == nil {
		return ""
	}
	key, err := s.Archive.Store(ctx, storage.Document{
		DispatchID:  d.ID,
		StudentCode: d.StudentCode,
		TemplateID:  d.TemplateID,
		Data:        data,
	})
	if err != nil {
		s.Log.WarnContext(ctx, "dispatch_archive_failed", "dispatch_id", d.ID, "error", err.Error())
		return ""
	}
	return key
}

func (s *documentService) History(ctx context.Context, limit, offset int) (*DispatchListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.Dispatches.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DispatchListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) ExportHistory(ctx context.Context, w io.Writer) error {
	res, err := s.Dispatches.List(ctx, repository.PageQuery{Limit: MaxExportRows})
	if err != nil {
		return err
	}
	return spreadsheet.ExportDispatches(w, res.Items, s.Location)
}

func (s *documentService) ArchivedURL(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	d, err := s.Dispatches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrDispatchNotFound
		}
		return "", err
	}
	if s.Archive == nil || d.StoragePath == "" {
		return "", ErrNotArchived
	}
	return s.Archive.DownloadURL(ctx, d.StoragePath, ArchiveURLExpiry)
}

func dispatchMessage(n int) string {
	if n > 1 {
		return fmt.Sprintf("Documentos enviados para %d responsáveis!", n)
	}
	return "Documento enviado para assinatura eletrônica!"
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
