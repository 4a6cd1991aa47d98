package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/repository"
	"github.com/feichai0017/correspondence-tracker/internal/service/analysis"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
	"github.com/feichai0017/correspondence-tracker/pkg/queue"
	"github.com/feichai0017/correspondence-tracker/pkg/storage"
)

const (
	tempPrefix      = "temp/"
	tempNamePrefix  = "temp_"
	timestampLayout = "20060102_150405"
	maxUploadName   = 200
)

var (
	ErrNotFound      = errors.New("not found")
	ErrQueueDisabled = errors.New("analysis queue not configured")
)

// InvalidInputError is a request the caller must fix.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

type DocumentService struct {
	docs      DocumentStore
	storage   storage.Storage
	analyzer  FileAnalyzer
	validator FileValidator
	queue     queue.Queue
	logger    logger.Logger
	config    *ServiceConfig
	now       func() time.Time
}

type ServiceConfig struct {
	// TempDir receives stored PDFs while they are analyzed.
	TempDir         string
	RetentionPeriod time.Duration
}

// NewService wires the registry. q may be nil, which disables background
// analysis.
func NewService(
	docs DocumentStore,
	store storage.Storage,
	analyzer FileAnalyzer,
	v FileValidator,
	q queue.Queue,
	log logger.Logger,
	cfg *ServiceConfig,
) *DocumentService {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	if cfg.RetentionPeriod <= 0 {
		cfg.RetentionPeriod = 24 * time.Hour
	}

	return &DocumentService{
		docs:      docs,
		storage:   store,
		analyzer:  analyzer,
		validator: v,
		queue:     q,
		logger:    log.Named("documents"),
		config:    cfg,
		now:       time.Now,
	}
}

func (s *DocumentService) Create(ctx context.Context, in models.DocumentInput, createdBy string) (*models.Document, error) {
	var d models.Document
	in.Apply(&d)
	if err := checkDocument(&d); err != nil {
		return nil, err
	}
	d.CreatedBy = createdBy

	if err := s.docs.Create(ctx, &d); err != nil {
		if errors.Is(err, repository.ErrDuplicateNumber) {
			return nil, invalid("Ya existe un documento con el número %s", d.NumeroOficio)
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info("Document created",
		logger.Int64("id", d.ID),
		logger.String("numero", d.NumeroOficio),
		logger.String("createdBy", createdBy),
	)
	return &d, nil
}

func (s *DocumentService) Get(ctx context.Context, id int64) (*models.Document, error) {
	d, err := s.docs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &d, nil
}

// Update applies the fields set in in.
func (s *DocumentService) Update(ctx context.Context, id int64, in models.DocumentInput) (*models.Document, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Apply(d)
	if err := checkDocument(d); err != nil {
		return nil, err
	}

	if err := s.docs.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateNumber):
			return nil, invalid("Ya existe un documento con el número %s", d.NumeroOficio)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	s.logger.Info("Document updated", logger.Int64("id", id))
	return d, nil
}

// Delete removes the document and its stored file.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if d.Archivo != "" {
		if err := s.storage.Delete(ctx, d.Archivo); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to delete document file",
				logger.Int64("id", id),
				logger.String("archivo", d.Archivo),
				logger.Error(err),
			)
		}
	}

	s.logger.Info("Document deleted", logger.Int64("id", id))
	return nil
}

func (s *DocumentService) List(ctx context.Context, f models.DocumentFilter) (*models.DocumentList, error) {
	if f.TipoDocumento != "" && !f.TipoDocumento.Valid() {
		return nil, invalid("tipo_documento inválido: %s", f.TipoDocumento)
	}
	if f.Direccion != "" && !f.Direccion.Valid() {
		return nil, invalid("direccion inválida: %s", f.Direccion)
	}

	list, err := s.docs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return &list, nil
}

func checkDocument(d *models.Document) error {
	d.NumeroOficio = strings.TrimSpace(d.NumeroOficio)
	if !d.TipoDocumento.Valid() {
		return invalid("tipo_documento debe ser oficio o carta")
	}
	if !d.Direccion.Valid() {
		return invalid("direccion debe ser recibido o enviado")
	}
	if d.Fecha != "" {
		if _, err := time.Parse(time.DateOnly, d.Fecha); err != nil {
			return invalid("fecha debe tener el formato AAAA-MM-DD")
		}
	}
	return nil
}

// UploadTemporary stores a PDF for analysis before the document exists.
func (s *DocumentService) UploadTemporary(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	pages, err := s.validate(file, header)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s%s_%s", tempNamePrefix, s.now().Format(timestampLayout), uploadName(header.Filename))
	if _, err := s.storage.Store(ctx, file, tempPrefix+name); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.Info("Temporary file stored",
		logger.String("archivo", name),
		logger.Int64("size", header.Size),
	)
	return &UploadResult{Mensaje: "Archivo subido temporalmente", Archivo: name, Pages: pages}, nil
}

// AttachFile stores the PDF of an existing document.
func (s *DocumentService) AttachFile(ctx context.Context, id int64, file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	pages, err := s.validate(file, header)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%d_%s_%s", id, s.now().Format(timestampLayout), uploadName(header.Filename))
	if _, err := s.storage.Store(ctx, file, name); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if err := s.docs.SetArchivo(ctx, id, name); err != nil {
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	s.logger.Info("Document file stored",
		logger.Int64("id", id),
		logger.String("archivo", name),
	)
	return &UploadResult{Mensaje: "Archivo subido exitosamente", Archivo: name, Pages: pages}, nil
}

func (s *DocumentService) validate(file multipart.File, header *multipart.FileHeader) (int, error) {
	res, err := s.validator.Validate(header.Filename, header.Size, file)
	if err != nil {
		return 0, fmt.Errorf("failed to validate file: %w", err)
	}
	if !res.IsValid {
		s.logger.Warn("Upload rejected",
			logger.String("filename", header.Filename),
			logger.String("reason", res.Messages()),
		)
		return 0, &InvalidInputError{Message: res.Messages()}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind file: %w", err)
	}
	return res.FileInfo.Pages, nil
}

// OpenFile returns the stored PDF of a document and its original name.
func (s *DocumentService) OpenFile(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if d.Archivo == "" {
		return nil, "", ErrNotFound
	}
	rc, err := s.storage.Get(ctx, d.Archivo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return rc, analysis.OriginalName(d.Archivo), nil
}

// AnalyzeStored analyzes an uploaded file by its stored name.
func (s *DocumentService) AnalyzeStored(ctx context.Context, name string) (*models.AnalysisResult, error) {
	key, err := storageKey(name)
	if err != nil {
		return nil, err
	}

	path, cleanup, err := s.download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	res, err := s.analyzer.AnalyzeFile(ctx, analysis.AnalyzeFileRequest{
		Path:         path,
		OriginalName: analysis.OriginalName(name),
	})
	switch {
	case errors.Is(err, analysis.ErrFileNotFound):
		return nil, ErrNotFound
	case errors.Is(err, analysis.ErrUnreadablePDF):
		return nil, invalid("Error al leer PDF: %v", err)
	case err != nil:
		return nil, fmt.Errorf("failed to analyze file: %w", err)
	}
	return &res, nil
}

func (s *DocumentService) download(ctx context.Context, key string) (string, func(), error) {
	rc, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to get file: %w", err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(s.config.TempDir, "analysis-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to download file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to download file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// SubmitAnalysis queues the analysis of a stored file.
func (s *DocumentService) SubmitAnalysis(ctx context.Context, name string) (*models.ProcessingTask, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	if _, err := storageKey(name); err != nil {
		return nil, err
	}

	task := queue.AnalyzeFileTask(uuid.New().String(), name, analysis.OriginalName(name))
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.logger.Error("Failed to enqueue analysis",
			logger.String("archivo", name),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to enqueue analysis: %w", err)
	}

	s.logger.Info("Analysis queued",
		logger.String("taskId", task.ID),
		logger.String("archivo", name),
	)
	return &models.ProcessingTask{
		ID:        task.ID,
		Status:    models.StatusPending,
		Type:      task.Type,
		FileName:  name,
		CreatedAt: task.CreatedAt,
	}, nil
}

// GetAnalysisJob reports the state of a queued analysis.
func (s *DocumentService) GetAnalysisJob(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	if s.queue == nil {
		return nil, ErrQueueDisabled
	}
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if errors.Is(err, queue.ErrTaskNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var taskStatus models.ProcessingStatus
	switch status.Status {
	case "running":
		taskStatus = models.StatusRunning
	case "completed":
		taskStatus = models.StatusCompleted
	case "failed":
		taskStatus = models.StatusFailed
	default:
		taskStatus = models.StatusPending
	}

	task := &models.ProcessingTask{
		ID:        status.TaskID,
		Status:    taskStatus,
		Type:      queue.TaskTypeAnalyzeFile,
		Error:     status.Error,
		CreatedAt: status.StartedAt,
		UpdatedAt: status.FinishedAt,
	}
	if len(status.Result) > 0 {
		var res models.AnalysisResult
		if err := json.Unmarshal(status.Result, &res); err != nil {
			return nil, fmt.Errorf("failed to decode analysis result: %w", err)
		}
		task.Result = &res
	}
	return task, nil
}

// HandleAnalysisTask runs a queued analysis and records its outcome.
func (s *DocumentService) HandleAnalysisTask(ctx context.Context, task *queue.Task) (*models.AnalysisResult, error) {
	if task == nil || task.Payload["key"] == "" {
		return nil, fmt.Errorf("invalid task: missing required data")
	}
	name := task.Payload["key"]
	started := s.now()

	s.saveStatus(ctx, &queue.TaskStatus{TaskID: task.ID, Status: "running", StartedAt: started})

	res, err := s.AnalyzeStored(ctx, name)
	if err != nil {
		s.saveStatus(ctx, &queue.TaskStatus{
			TaskID:     task.ID,
			Status:     "failed",
			Error:      err.Error(),
			StartedAt:  started,
			FinishedAt: s.now(),
		})
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	s.saveStatus(ctx, &queue.TaskStatus{
		TaskID:     task.ID,
		Status:     "completed",
		Result:     data,
		StartedAt:  started,
		FinishedAt: s.now(),
	})

	s.logger.Info("Analysis task completed",
		logger.String("taskId", task.ID),
		logger.String("archivo", name),
		logger.Bool("exito", res.Exito),
	)
	return res, nil
}

func (s *DocumentService) saveStatus(ctx context.Context, status *queue.TaskStatus) {
	if s.queue == nil {
		return
	}
	if err := s.queue.SaveFinalStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save task status",
			logger.String("taskId", status.TaskID),
			logger.Error(err),
		)
	}
}

// CleanupTemporary removes temporary uploads older than the retention
// period.
func (s *DocumentService) CleanupTemporary(ctx context.Context) (int, error) {
	threshold := s.now().Add(-s.config.RetentionPeriod)

	n, err := s.storage.CleanupBefore(ctx, tempPrefix, threshold)
	if err != nil {
		return n, fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed temporary files cleanup",
		logger.Time("threshold", threshold),
		logger.Int("removed", n),
	)
	return n, nil
}

// storageKey maps a stored file name onto its storage key. Temporary
// uploads live under temp/.
func storageKey(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", invalid("nombre de archivo inválido")
	}
	if strings.HasPrefix(name, tempNamePrefix) {
		return tempPrefix + name, nil
	}
	return name, nil
}

// uploadName keeps the base name of the client's file, without path
// separators.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxUploadName {
		name = string(r[len(r)-maxUploadName:])
	}
	return name
}
