package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/session"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/jobs"
	"github.com/noah-isme/sma-adp-console/pkg/storage"
)

const rosterExportJob = "roster_export"

// ExportStatus is the lifecycle state of an export.
type ExportStatus string

const (
	ExportQueued  ExportStatus = "queued"
	ExportRunning ExportStatus = "running"
	ExportDone    ExportStatus = "done"
	ExportFailed  ExportStatus = "failed"
)

// ExportJob describes a requested roster export.
type ExportJob struct {
	ID           string        `json:"id"`
	StudyClassID int64         `json:"studyClassId"`
	Format       export.Format `json:"format"`
	Status       ExportStatus  `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	FinishedAt   *time.Time    `json:"finishedAt,omitempty"`
	DownloadURL  string        `json:"downloadUrl,omitempty"`
	ExpiresAt    *time.Time    `json:"expiresAt,omitempty"`

	fileName string
	token    string
}

// ExportFile is an opened export ready to stream.
type ExportFile struct {
	File        *os.File
	Name        string
	ContentType string
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type rosterSource interface {
	StudyClass(ctx context.Context, id int64) (models.StudyClass, bool, error)
	Roster(ctx context.Context, studyClassID int64) ([]models.SubscribedStudent, bool, error)
}

type exportRecorder interface {
	ObserveExport(format, status string)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix         string
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// ExportService renders class rosters into files on a background queue.
type ExportService struct {
	source   rosterSource
	storage  fileStorage
	signer   *storage.DownloadSigner
	queue    *jobs.Queue
	recorder exportRecorder
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time

	mu   sync.Mutex
	jobs map[string]*ExportJob
}

// NewExportService constructs an ExportService. Start must be called before
// exports are requested.
func NewExportService(source rosterSource, files fileStorage, signer *storage.DownloadSigner, cfg ExportConfig, recorder exportRecorder, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	s := &ExportService{
		source:   source,
		storage:  files,
		signer:   signer,
		recorder: recorder,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		jobs:     make(map[string]*ExportJob),
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:     cfg.WorkerConcurrency,
		MaxRetries:  cfg.WorkerRetries,
		RetryDelay:  cfg.RetryDelay,
		OnExhausted: s.fail,
		Logger:      logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Stats reports export queue activity.
func (s *ExportService) Stats() jobs.Stats {
	return s.queue.Stats()
}

type exportPayload struct {
	token string
}

// Request queues a roster export of studyClassID. The caller's credential
// is carried to the worker so the roster is read on their behalf.
func (s *ExportService) Request(ctx context.Context, studyClassID int64, format export.Format) (*ExportJob, error) {
	if studyClassID <= 0 {
		return nil, appErrors.Validation("invalid export request", map[string]string{"studyClassId": "must be greater than 0"})
	}
	if _, err := export.RendererFor(format); err != nil {
		return nil, appErrors.Validation("invalid export request", map[string]string{"format": "must be one of csv pdf xlsx"})
	}
	job := &ExportJob{
		ID:           uuid.NewString(),
		StudyClassID: studyClassID,
		Format:       format,
		Status:       ExportQueued,
		CreatedAt:    s.now().UTC(),
	}
	queued := *job
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(ctx, jobs.Job{
		ID:      job.ID,
		Type:    rosterExportJob,
		Payload: exportPayload{token: session.TokenFromContext(ctx)},
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue unavailable")
	}
	return &queued, nil
}

// Get returns a copy of an export, with a fresh download link once done.
func (s *ExportService) Get(id string) (*ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	out := *job
	if out.Status == ExportDone && s.signer != nil {
		token, expiresAt, err := s.signer.Sign(job.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign download link")
		}
		out.DownloadURL = fmt.Sprintf("%s/exports/%s/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), job.ID, token)
		out.ExpiresAt = &expiresAt
	}
	return &out, nil
}

// Open verifies a download token and opens the export file.
func (s *ExportService) Open(id, token string) (*ExportFile, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signing not configured")
	}
	subject, err := s.signer.Verify(token)
	if err != nil || subject != id {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	s.mu.Lock()
	job, ok := s.jobs[id]
	var name string
	var format export.Format
	if ok {
		name, format = job.fileName, job.Format
		ok = job.Status == ExportDone
	}
	s.mu.Unlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not ready")
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unknown export format")
	}
	file, err := s.storage.Open(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file expired")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "open export")
	}
	return &ExportFile{File: file, Name: path.Base(name), ContentType: renderer.ContentType()}, nil
}

// Cleanup removes export files and records older than the result TTL.
func (s *ExportService) Cleanup() (int, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	s.mu.Lock()
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) && job.Status != ExportQueued && job.Status != ExportRunning {
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()
	return len(deleted), err
}

func (s *ExportService) process(ctx context.Context, qjob jobs.Job) error {
	s.mu.Lock()
	job, ok := s.jobs[qjob.ID]
	if ok {
		job.Status = ExportRunning
	}
	var classID int64
	var format export.Format
	if ok {
		classID, format = job.StudyClassID, job.Format
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if payload, ok := qjob.Payload.(exportPayload); ok && payload.token != "" {
		ctx = session.WithToken(ctx, payload.token)
	}
	class, _, err := s.source.StudyClass(ctx, classID)
	if err != nil {
		return err
	}
	roster, _, err := s.source.Roster(ctx, classID)
	if err != nil {
		return err
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return err
	}
	payload, err := renderer.Render(rosterTable(class, roster))
	if err != nil {
		return err
	}
	name := fmt.Sprintf("rosters/%s_%s.%s", sanitizeFilename(class.ClassCode), qjob.ID, format)
	if _, err := s.storage.Save(name, payload); err != nil {
		return err
	}

	finished := s.now().UTC()
	s.mu.Lock()
	if job, ok := s.jobs[qjob.ID]; ok {
		job.Status = ExportDone
		job.FinishedAt = &finished
		job.fileName = name
	}
	s.mu.Unlock()
	s.observe(format, ExportDone)
	s.logger.Info("roster export finished", zap.String("export_id", qjob.ID), zap.Int64("study_class_id", classID), zap.Int("rows", len(roster)))
	return nil
}

func (s *ExportService) fail(qjob jobs.Job, err error) {
	finished := s.now().UTC()
	var format export.Format
	s.mu.Lock()
	if job, ok := s.jobs[qjob.ID]; ok {
		job.Status = ExportFailed
		job.Error = appErrors.FromError(err).Message
		job.FinishedAt = &finished
		format = job.Format
	}
	s.mu.Unlock()
	s.observe(format, ExportFailed)
}

func (s *ExportService) observe(format export.Format, status ExportStatus) {
	if s.recorder != nil {
		s.recorder.ObserveExport(string(format), string(status))
	}
}

func rosterTable(class models.StudyClass, roster []models.SubscribedStudent) export.Table {
	rows := make([][]string, 0, len(roster))
	for _, st := range roster {
		rows = append(rows, []string{
			st.Name,
			st.Email,
			st.Phone,
			st.SubscriptionDate.UTC().Format("2006-01-02"),
		})
	}
	return export.Table{
		Title:   fmt.Sprintf("%s %d/%d roster", class.ClassCode, class.Year, class.Semester),
		Columns: []string{"Student", "Email", "Phone", "Subscribed"},
		Rows:    rows,
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "class"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
