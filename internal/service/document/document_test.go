package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/internal/service/analysis"
	"github.com/feichai0017/correspondence-tracker/internal/utils/validator"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
	"github.com/feichai0017/correspondence-tracker/pkg/queue"
	"github.com/feichai0017/correspondence-tracker/pkg/storage/local"
)

type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

func upload(name, body string) (multipart.File, *multipart.FileHeader) {
	return memFile{bytes.NewReader([]byte(body))}, &multipart.FileHeader{Filename: name, Size: int64(len(body))}
}

type acceptAll struct{}

func (acceptAll) Validate(filename string, size int64, r io.ReadSeeker) (*validator.ValidationResult, error) {
	io.Copy(io.Discard, r)
	return &validator.ValidationResult{IsValid: true, FileInfo: validator.FileInfo{Filename: filename, Size: size, Pages: 1}}, nil
}

type fakeAnalyzer struct {
	req     analysis.AnalyzeFileRequest
	content string
	res     models.AnalysisResult
	err     error
}

func (f *fakeAnalyzer) AnalyzeFile(ctx context.Context, req analysis.AnalyzeFileRequest) (models.AnalysisResult, error) {
	f.req = req
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	f.content = string(data)
	return f.res, f.err
}

type fakeQueue struct {
	tasks    []*queue.Task
	statuses map[string]*queue.TaskStatus
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{statuses: map[string]*queue.TaskStatus{}}
}

func (q *fakeQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	q.tasks = append(q.tasks, task)
	q.statuses[task.ID] = &queue.TaskStatus{TaskID: task.ID, Status: "pending", StartedAt: task.CreatedAt}
	return nil
}

func (q *fakeQueue) GetTaskStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error) {
	s, ok := q.statuses[taskID]
	if !ok {
		return nil, queue.ErrTaskNotFound
	}
	return s, nil
}

func (q *fakeQueue) CancelTask(ctx context.Context, taskID string) error {
	delete(q.statuses, taskID)
	return nil
}

func (q *fakeQueue) SaveFinalStatus(ctx context.Context, status *queue.TaskStatus) error {
	q.statuses[status.TaskID] = status
	return nil
}

type fixture struct {
	svc      *DocumentService
	analyzer *fakeAnalyzer
	queue    *fakeQueue
	root     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := repository.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := filepath.Join(dir, "uploads")
	store, err := local.NewLocalStorage(root, logger.NewNop())
	require.NoError(t, err)

	f := &fixture{
		analyzer: &fakeAnalyzer{res: models.AnalysisResult{NumeroOficio: "OFICIO N°00012-2025-MIDIS", Exito: true}},
		queue:    newFakeQueue(),
		root:     root,
	}
	f.svc = NewService(repository.NewDocumentRepository(db), store, f.analyzer, acceptAll{}, f.queue,
		logger.NewTestLogger(), &ServiceConfig{TempDir: dir, RetentionPeriod: time.Hour})
	f.svc.now = func() time.Time { return time.Date(2025, 3, 4, 10, 30, 15, 0, time.UTC) }
	return f
}

func ptr[T any](v T) *T { return &v }

func newInput(numero string) models.DocumentInput {
	return models.DocumentInput{
		TipoDocumento: ptr(models.TipoOficio),
		Direccion:     ptr(models.DireccionRecibido),
		NumeroOficio:  ptr(numero),
		Titulo:        ptr("Solicitud"),
	}
}

func TestCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, newInput(" OFICIO N°00012-2025-MIDIS "), "admin")
	require.NoError(t, err)
	assert.Equal(t, "OFICIO N°00012-2025-MIDIS", d.NumeroOficio)
	assert.Equal(t, "admin", d.CreatedBy)

	updated, err := f.svc.Update(ctx, d.ID, models.DocumentInput{Asunto: ptr("Reiterativo")})
	require.NoError(t, err)
	assert.Equal(t, "Reiterativo", updated.Asunto)
	assert.Equal(t, "Solicitud", updated.Titulo)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := newInput("")
	in.TipoDocumento = ptr(models.TipoDocumento("memo"))
	_, err := f.svc.Create(ctx, in, "admin")
	var invalidErr *InvalidInputError
	require.ErrorAs(t, err, &invalidErr)

	in = newInput("")
	in.Fecha = ptr("04/03/2025")
	_, err = f.svc.Create(ctx, in, "admin")
	require.ErrorAs(t, err, &invalidErr)
}

func TestCreateDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, newInput("CARTA N°005-2025"), "admin")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, newInput("CARTA N°005-2025"), "admin")
	var invalidErr *InvalidInputError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "Ya existe un documento con el número CARTA N°005-2025", invalidErr.Message)
}

func TestGetMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Update(context.Background(), 42, models.DocumentInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), 42), ErrNotFound)
}

func TestListRejectsUnknownFilter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), models.DocumentFilter{Direccion: "archivado"})
	var invalidErr *InvalidInputError
	assert.ErrorAs(t, err, &invalidErr)

	list, err := f.svc.List(context.Background(), models.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Documentos)
}

func TestAttachOpenAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, newInput("OFICIO N°00012-2025-MIDIS"), "admin")
	require.NoError(t, err)

	file, header := upload(`C:\scans\oficio 12.pdf`, "%PDF-1.4 body")
	res, err := f.svc.AttachFile(ctx, d.ID, file, header)
	require.NoError(t, err)
	assert.Equal(t, "1_20250304_103015_oficio 12.pdf", res.Archivo)

	rc, name, err := f.svc.OpenFile(ctx, d.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
	assert.Equal(t, "oficio 12.pdf", name)

	require.NoError(t, f.svc.Delete(ctx, d.ID))
	_, err = os.Stat(filepath.Join(f.root, res.Archivo))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenFileWithoutArchivo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.Create(ctx, newInput(""), "admin")
	require.NoError(t, err)

	_, _, err = f.svc.OpenFile(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRejectedByValidator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.validator = validator.NewDocumentValidator(logger.NewNop(), nil)

	file, header := upload("oficio.docx", "PK\x03\x04")
	_, err := f.svc.UploadTemporary(ctx, file, header)
	var invalidErr *InvalidInputError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "Solo se permiten archivos PDF", invalidErr.Message)
}

func TestUploadAndAnalyzeTemporary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, header := upload("oficio_12.pdf", "%PDF-1.4 temp")
	res, err := f.svc.UploadTemporary(ctx, file, header)
	require.NoError(t, err)
	assert.Equal(t, "temp_20250304_103015_oficio_12.pdf", res.Archivo)
	assert.FileExists(t, filepath.Join(f.root, "temp", res.Archivo))

	out, err := f.svc.AnalyzeStored(ctx, res.Archivo)
	require.NoError(t, err)
	assert.True(t, out.Exito)
	assert.Equal(t, "oficio_12.pdf", f.analyzer.req.OriginalName)
	assert.Equal(t, "%PDF-1.4 temp", f.analyzer.content)
	assert.NoFileExists(t, f.analyzer.req.Path)
}

func TestAnalyzeStoredErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.AnalyzeStored(ctx, "../secret.pdf")
	var invalidErr *InvalidInputError
	assert.ErrorAs(t, err, &invalidErr)

	_, err = f.svc.AnalyzeStored(ctx, "temp_20250101_000000_missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	file, header := upload("roto.pdf", "%PDF")
	res, err := f.svc.UploadTemporary(ctx, file, header)
	require.NoError(t, err)

	f.analyzer.err = analysis.ErrUnreadablePDF
	_, err = f.svc.AnalyzeStored(ctx, res.Archivo)
	assert.ErrorAs(t, err, &invalidErr)
}

func TestAnalysisJobLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, header := upload("oficio.pdf", "%PDF-1.4 job")
	up, err := f.svc.UploadTemporary(ctx, file, header)
	require.NoError(t, err)

	job, err := f.svc.SubmitAnalysis(ctx, up.Archivo)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, job.Status)
	require.Len(t, f.queue.tasks, 1)
	assert.Equal(t, up.Archivo, f.queue.tasks[0].Payload["key"])
	assert.Equal(t, "oficio.pdf", f.queue.tasks[0].Payload["originalName"])

	_, err = f.svc.HandleAnalysisTask(ctx, f.queue.tasks[0])
	require.NoError(t, err)

	got, err := f.svc.GetAnalysisJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "OFICIO N°00012-2025-MIDIS", got.Result.NumeroOficio)

	_, err = f.svc.GetAnalysisJob(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysisTaskFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task := queue.AnalyzeFileTask("job-1", "temp_20250101_000000_missing.pdf", "missing.pdf")
	_, err := f.svc.HandleAnalysisTask(ctx, task)
	require.Error(t, err)

	status := f.queue.statuses["job-1"]
	require.NotNil(t, status)
	assert.Equal(t, "failed", status.Status)
	assert.NotEmpty(t, status.Error)

	_, err = f.svc.HandleAnalysisTask(ctx, &queue.Task{ID: "job-2"})
	assert.Error(t, err)
}

func TestQueueDisabled(t *testing.T) {
	f := newFixture(t)
	f.svc.queue = nil

	_, err := f.svc.SubmitAnalysis(context.Background(), "temp_x.pdf")
	assert.ErrorIs(t, err, ErrQueueDisabled)
}

func TestCleanupTemporary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, header := upload("viejo.pdf", "%PDF-1.4 old")
	up, err := f.svc.UploadTemporary(ctx, file, header)
	require.NoError(t, err)

	n, err := f.svc.CleanupTemporary(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = f.svc.CleanupTemporary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, filepath.Join(f.root, "temp", up.Archivo))
}

func TestGetAnalysisJobDecodesResult(t *testing.T) {
	f := newFixture(t)
	data, err := json.Marshal(models.AnalysisResult{Asunto: "Pago", Exito: true})
	require.NoError(t, err)
	f.queue.statuses["j"] = &queue.TaskStatus{TaskID: "j", Status: "running", Result: data}

	got, err := f.svc.GetAnalysisJob(context.Background(), "j")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status)
	assert.Equal(t, "Pago", got.Result.Asunto)
}
