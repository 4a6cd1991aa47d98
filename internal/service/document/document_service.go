package document

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/feichai0017/correspondence-tracker/internal/models"
	"github.com/feichai0017/correspondence-tracker/internal/service/analysis"
	"github.com/feichai0017/correspondence-tracker/internal/utils/validator"
	"github.com/feichai0017/correspondence-tracker/pkg/queue"
)

// DocumentProcessor is everything the HTTP layer and the worker need from
// the correspondence registry.
type DocumentProcessor interface {
	Create(ctx context.Context, in models.DocumentInput, createdBy string) (*models.Document, error)
	Get(ctx context.Context, id int64) (*models.Document, error)
	Update(ctx context.Context, id int64, in models.DocumentInput) (*models.Document, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f models.DocumentFilter) (*models.DocumentList, error)

	UploadTemporary(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*UploadResult, error)
	AttachFile(ctx context.Context, id int64, file multipart.File, header *multipart.FileHeader) (*UploadResult, error)
	OpenFile(ctx context.Context, id int64) (io.ReadCloser, string, error)

	AnalyzeStored(ctx context.Context, name string) (*models.AnalysisResult, error)
	SubmitAnalysis(ctx context.Context, name string) (*models.ProcessingTask, error)
	GetAnalysisJob(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	HandleAnalysisTask(ctx context.Context, task *queue.Task) (*models.AnalysisResult, error)
	CleanupTemporary(ctx context.Context) (int, error)
}

// DocumentStore is implemented by repository.DocumentRepository.
type DocumentStore interface {
	Create(ctx context.Context, d *models.Document) error
	Get(ctx context.Context, id int64) (models.Document, error)
	Update(ctx context.Context, d *models.Document) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f models.DocumentFilter) (models.DocumentList, error)
	SetArchivo(ctx context.Context, id int64, archivo string) error
}

// FileAnalyzer is implemented by analysis.Service.
type FileAnalyzer interface {
	AnalyzeFile(ctx context.Context, req analysis.AnalyzeFileRequest) (models.AnalysisResult, error)
}

// FileValidator is implemented by validator.DocumentValidator.
type FileValidator interface {
	Validate(filename string, size int64, r io.ReadSeeker) (*validator.ValidationResult, error)
}

type UploadResult struct {
	Mensaje string `json:"mensaje"`
	Archivo string `json:"archivo"`
	Pages   int    `json:"paginas,omitempty"`
}
