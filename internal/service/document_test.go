package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"schooldocs/internal/mergefield"
	"schooldocs/internal/metrics"
	"schooldocs/internal/model"
	"schooldocs/internal/repository"
	repoMocks "schooldocs/internal/repository/mocks"
	"schooldocs/internal/storage"
	storeMocks "schooldocs/internal/storage/mocks"
	"schooldocs/internal/webhook"
	webhookMocks "schooldocs/internal/webhook/mocks"
)

var fakePDFBytes = []byte("%PDF-1.3 fake")

// fakePDF records the HTML it was asked to render.
type fakePDF struct {
	rendered []string
	err      error
}

func (f *fakePDF) Render(html string) ([]byte, error) {
	f.rendered = append(f.rendered, html)
	if f.err != nil {
		return nil, f.err
	}
	return fakePDFBytes, nil
}

type docFixture struct {
	students   *repoMocks.MockStudentRepository
	dispatches *repoMocks.MockDispatchRepository
	store      *storeMocks.MockArchive
	sender     *webhookMocks.MockSender
	pdf        *fakePDF
	deps       DocumentDeps
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	catalog, err := mergefield.NewCatalog()
	require.NoError(t, err)

	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	f := &docFixture{
		students:   new(repoMocks.MockStudentRepository),
		dispatches: new(repoMocks.MockDispatchRepository),
		store:      new(storeMocks.MockArchive),
		sender:     new(webhookMocks.MockSender),
		pdf:        &fakePDF{},
	}
	f.deps = DocumentDeps{
		Catalog:    catalog,
		Merge:      mergefield.NewRenderer(time.UTC, mergefield.WithNow(func() time.Time { return now })),
		PDF:        f.pdf,
		Students:   f.students,
		Dispatches: f.dispatches,
		Sender:     f.sender,
		Log:        discardLogger(),
	}
	return f
}

func (f *docFixture) withStudents(list ...model.Student) {
	for i := range list {
		s := list[i]
		f.students.On("FindByCode", mock.Anything, s.Code).Return(&s, nil)
	}
}

func withBilling(s model.Student, whatsapp string) model.Student {
	s.BillingWhatsApp = whatsapp
	return s
}

func TestDocumentService_Preview(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(student(1, "Ana", father("1"), mother("2")))
	f.deps.PreviewBackground = "/static/letterhead.png"
	svc := NewDocumentService(f.deps)

	docs, err := svc.Preview(ctx, DocumentRequest{
		TemplateID: "comunicado_geral",
		Recipients: []RecipientRef{{StudentCode: 1, Guardian: model.GuardianMother}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Maria", docs[0].GuardianName)
	assert.Contains(t, docs[0].HTML, "Sr(a). <strong>Maria</strong>")
	assert.Contains(t, docs[0].HTML, "09/03/2026")
	assert.Contains(t, docs[0].HTML, "url(/static/letterhead.png)")
}

func TestDocumentService_PreviewWithoutRecipients(t *testing.T) {
	f := newDocFixture(t)
	svc := NewDocumentService(f.deps)

	docs, err := svc.Preview(context.Background(), DocumentRequest{Content: "<p>{{DATA_HOJE}} {{NOME_ALUNO}}</p>"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].HTML, "09/03/2026 {{NOME_ALUNO}}")
}

func TestDocumentService_PreviewErrors(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.students.On("FindByCode", ctx, int64(7)).Return(nil, sql.ErrNoRows)
	svc := NewDocumentService(f.deps)

	_, err := svc.Preview(ctx, DocumentRequest{})
	assert.ErrorIs(t, err, ErrTemplateRequired)

	_, err = svc.Preview(ctx, DocumentRequest{TemplateID: "nope"})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = svc.Preview(ctx, DocumentRequest{TemplateID: "grau_leve", Recipients: []RecipientRef{{StudentCode: 7}}})
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestDocumentService_ExportPDF(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(student(42, "Ana", father("1"), nil))
	svc := NewDocumentService(f.deps)

	doc, err := svc.ExportPDF(ctx, DocumentRequest{
		TemplateID: "comunicado_geral",
		Content:    "<p>{{NOME_RESPONSAVEL}}</p>",
		Recipients: []RecipientRef{{StudentCode: 42, Guardian: model.GuardianFather}},
	})
	require.NoError(t, err)
	assert.Equal(t, "comunicado_geral_42.pdf", doc.Filename)
	assert.Equal(t, fakePDFBytes, doc.Data)
	assert.Equal(t, []string{"<p>Carlos</p>"}, f.pdf.rendered)

	_, err = svc.ExportPDF(ctx, DocumentRequest{
		TemplateID: "comunicado_geral",
		Recipients: []RecipientRef{{StudentCode: 1}, {StudentCode: 2}},
	})
	assert.ErrorIs(t, err, ErrSingleRecipient)
}

func TestDocumentService_ExportPDFRenderError(t *testing.T) {
	f := newDocFixture(t)
	f.pdf.err = errors.New("bad html")
	svc := NewDocumentService(f.deps)

	_, err := svc.ExportPDF(context.Background(), DocumentRequest{Content: "<p>x</p>"})
	assert.EqualError(t, err, "render pdf: bad html")
}

func TestDocumentService_DispatchGating(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(student(1, "Ana", father("1"), nil))

	tests := []struct {
		name    string
		req     DocumentRequest
		noSend  bool
		wantErr error
	}{
		{name: "template required", req: DocumentRequest{Recipients: []RecipientRef{{StudentCode: 1, Guardian: "pai"}}}, wantErr: ErrTemplateRequired},
		{name: "recipients required", req: DocumentRequest{TemplateID: "grau_leve"}, wantErr: ErrNoRecipients},
		{name: "guardian required", req: DocumentRequest{TemplateID: "grau_leve", Recipients: []RecipientRef{{StudentCode: 1}}}, wantErr: ErrGuardianRequired},
		{name: "unknown template", req: DocumentRequest{TemplateID: "x", Recipients: []RecipientRef{{StudentCode: 1, Guardian: "pai"}}}, wantErr: ErrTemplateNotFound},
		{name: "webhook not configured", req: DocumentRequest{TemplateID: "grau_leve", Recipients: []RecipientRef{{StudentCode: 1, Guardian: "pai"}}}, noSend: true, wantErr: ErrWebhookDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := f.deps
			if tt.noSend {
				deps.Sender = nil
			}
			res, err := NewDocumentService(deps).Dispatch(ctx, tt.req)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDocumentService_DispatchAll(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(
		withBilling(student(1, "Ana", father("1"), mother("2")), "11999990000"),
		student(2, "Bruno", nil, &model.Guardian{Kind: model.GuardianMother, Name: "Rita"}),
	)

	reg := prometheus.NewRegistry()
	m, err := metrics.NewDispatch(reg)
	require.NoError(t, err)
	f.deps.Metrics = m
	f.deps.Archive = f.store
	f.deps.Delay = 20 * time.Millisecond

	b64 := base64.StdEncoding.EncodeToString(fakePDFBytes)
	f.sender.On("Send", ctx, webhook.Payload{
		NomeResponsavel: "Maria",
		CPFResponsavel:  "222",
		WhatsApp:        "11999990000",
		Base64:          b64,
		NomeAluno:       "Ana",
	}).Return(`{"ok":true}`, nil).Once()
	f.sender.On("Send", ctx, webhook.Payload{
		NomeResponsavel: "Rita",
		CPFResponsavel:  "[CPF do Responsável]",
		WhatsApp:        "[WhatsApp não informado]",
		Base64:          b64,
		NomeAluno:       "Bruno",
	}).Return(`{"ok":true}`, nil).Once()

	f.store.On("Store", ctx, mock.MatchedBy(func(doc storage.Document) bool {
		return doc.DispatchID != "" && doc.TemplateID == "grau_leve" && bytes.Equal(doc.Data, fakePDFBytes)
	})).Return(func(_ context.Context, doc storage.Document) string {
		return storage.DispatchKey(doc.DispatchID)
	}, nil)

	f.dispatches.On("Create", ctx, mock.MatchedBy(func(d *model.Dispatch) bool {
		return d.Status == model.DispatchSent && d.ID != "" && strings.HasPrefix(d.StoragePath, "dispatches/")
	})).Return(nil, nil)

	svc := NewDocumentService(f.deps)
	start := time.Now()
	res, err := svc.Dispatch(ctx, DocumentRequest{
		TemplateID: "grau_leve",
		Recipients: []RecipientRef{
			{StudentCode: 1, Guardian: model.GuardianMother},
			{StudentCode: 2, Guardian: model.GuardianMother},
		},
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "Documentos enviados para 2 responsáveis!", res.Message)
	require.Len(t, res.Dispatches, 2)
	assert.Equal(t, "Maria", res.Dispatches[0].GuardianName)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Len(t, f.pdf.rendered, 2)
	f.sender.AssertExpectations(t)
	f.store.AssertNumberOfCalls(t, "Store", 2)
}

func TestDocumentService_DispatchSingleMessage(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(student(1, "Ana", father("1"), nil))
	f.sender.On("Send", ctx, mock.Anything).Return("ok", nil)
	f.dispatches.On("Create", ctx, mock.Anything).Return(nil, errors.New("db down"))

	res, err := NewDocumentService(f.deps).Dispatch(ctx, DocumentRequest{
		TemplateID: "grau_leve",
		Recipients: []RecipientRef{{StudentCode: 1, Guardian: model.GuardianFather}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Documento enviado para assinatura eletrônica!", res.Message)
	assert.Empty(t, res.Dispatches[0].StoragePath)
}

func TestDocumentService_DispatchStopsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(
		student(1, "Ana", father("1"), nil),
		student(2, "Bruno", father("1"), nil),
		student(3, "Caio", father("1"), nil),
	)
	f.sender.On("Send", ctx, mock.MatchedBy(func(p webhook.Payload) bool { return p.NomeAluno == "Ana" })).Return("ok", nil)
	f.sender.On("Send", ctx, mock.MatchedBy(func(p webhook.Payload) bool { return p.NomeAluno == "Bruno" })).
		Return("", &webhook.StatusError{Status: 404, StatusText: "Not Found"})
	f.dispatches.On("Create", ctx, mock.Anything).Return(nil, nil)

	res, err := NewDocumentService(f.deps).Dispatch(ctx, DocumentRequest{
		TemplateID: "grau_leve",
		Recipients: []RecipientRef{
			{StudentCode: 1, Guardian: model.GuardianFather},
			{StudentCode: 2, Guardian: model.GuardianFather},
			{StudentCode: 3, Guardian: model.GuardianFather},
		},
	})

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Bruno", de.Student)
	assert.Equal(t, 1, de.Sent)
	assert.Equal(t, "Erro ao enviar documento para Bruno: Webhook não encontrado. Verifique se o sistema de automação está funcionando corretamente.", err.Error())

	var se *webhook.StatusError
	assert.ErrorAs(t, err, &se)

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, res.Dispatches, 2)
	assert.Equal(t, model.DispatchFailed, res.Dispatches[1].Status)
	assert.Equal(t, se.Message(), res.Dispatches[1].Error)
	assert.Empty(t, res.Message)
	f.sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestDocumentService_DispatchRenderFailure(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.withStudents(student(1, "Ana", father("1"), nil))
	f.pdf.err = errors.New("no content")

	res, err := NewDocumentService(f.deps).Dispatch(ctx, DocumentRequest{
		TemplateID: "grau_leve",
		Recipients: []RecipientRef{{StudentCode: 1, Guardian: model.GuardianFather}},
	})
	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 0, de.Sent)
	assert.Empty(t, res.Dispatches)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDocumentService_DispatchCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newDocFixture(t)
	f.withStudents(student(1, "Ana", father("1"), nil), student(2, "Bruno", father("1"), nil))
	f.deps.Delay = time.Minute
	f.sender.On("Send", mock.Anything, mock.Anything).Return("ok", nil).Run(func(mock.Arguments) { cancel() })
	f.dispatches.On("Create", mock.Anything, mock.Anything).Return(nil, nil)

	res, err := NewDocumentService(f.deps).Dispatch(ctx, DocumentRequest{
		TemplateID: "grau_leve",
		Recipients: []RecipientRef{
			{StudentCode: 1, Guardian: model.GuardianFather},
			{StudentCode: 2, Guardian: model.GuardianFather},
		},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Sent)
	f.sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestDocumentService_DispatchCancelledDuringSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newDocFixture(t)
	f.withStudents(student(1, "Ana", father("1"), nil), student(2, "Bruno", father("1"), nil))
	f.sender.On("Send", mock.Anything, mock.MatchedBy(func(p webhook.Payload) bool { return p.NomeAluno == "Ana" })).Return("ok", nil)
	f.sender.On("Send", mock.Anything, mock.MatchedBy(func(p webhook.Payload) bool { return p.NomeAluno == "Bruno" })).
		Return("", &webhook.NetworkError{Err: context.Canceled}).Run(func(mock.Arguments) { cancel() })
	f.dispatches.On("Create", mock.Anything, mock.Anything).Return(nil, nil)

	res, err := NewDocumentService(f.deps).Dispatch(ctx, DocumentRequest{
		TemplateID: "grau_leve",
		Recipients: []RecipientRef{
			{StudentCode: 1, Guardian: model.GuardianFather},
			{StudentCode: 2, Guardian: model.GuardianFather},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var de *DispatchError
	assert.False(t, errors.As(err, &de))
	assert.Equal(t, "dispatch interrupted after 1 of 2: context canceled", err.Error())

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Sent)
	require.Len(t, res.Dispatches, 2)
	assert.Equal(t, model.DispatchFailed, res.Dispatches[1].Status)
	f.sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestDocumentService_History(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.dispatches.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Dispatch]{Items: []model.Dispatch{{ID: "d1"}}, Total: 1}, nil)
	svc := NewDocumentService(f.deps)

	res, err := svc.History(ctx, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "d1", res.Items[0].ID)
}

func TestDocumentService_ExportHistory(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.dispatches.On("List", ctx, repository.PageQuery{Limit: MaxExportRows}).
		Return(&repository.PageResult[model.Dispatch]{Items: []model.Dispatch{{ID: "d1", Status: model.DispatchSent}}, Total: 1}, nil)

	var buf bytes.Buffer
	require.NoError(t, NewDocumentService(f.deps).ExportHistory(ctx, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}

func TestDocumentService_ArchivedURL(t *testing.T) {
	ctx := context.Background()
	f := newDocFixture(t)
	f.deps.Archive = f.store
	f.dispatches.On("FindByID", ctx, "d1").Return(&model.Dispatch{ID: "d1", StoragePath: "dispatches/d1.pdf"}, nil)
	f.dispatches.On("FindByID", ctx, "d2").Return(&model.Dispatch{ID: "d2"}, nil)
	f.dispatches.On("FindByID", ctx, "d3").Return(nil, sql.ErrNoRows)
	f.store.On("DownloadURL", ctx, "dispatches/d1.pdf", ArchiveURLExpiry).Return("https://minio/d1", nil)
	svc := NewDocumentService(f.deps)

	url, err := svc.ArchivedURL(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "https://minio/d1", url)

	_, err = svc.ArchivedURL(ctx, "d2")
	assert.ErrorIs(t, err, ErrNotArchived)

	_, err = svc.ArchivedURL(ctx, "d3")
	assert.ErrorIs(t, err, ErrDispatchNotFound)

	_, err = svc.ArchivedURL(ctx, "")
	assert.ErrorIs(t, err, ErrIDRequired)
}
