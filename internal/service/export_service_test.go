package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/storage"
)

type exportRecorderStub struct {
	statuses chan string
}

func (r *exportRecorderStub) ObserveExport(format, status string) {
	r.statuses <- format + ":" + status
}

func newExports(t *testing.T) (*ExportService, *exportRecorderStub) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	dir, _ := newDirectory(newReaderStub())
	rec := &exportRecorderStub{statuses: make(chan string, 4)}
	svc := NewExportService(dir, files, storage.NewDownloadSigner("secret", time.Minute), ExportConfig{
		APIPrefix:     "/api/v1",
		WorkerRetries: 0,
		RetryDelay:    time.Millisecond,
	}, rec, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc, rec
}

func waitStatus(t *testing.T, rec *exportRecorderStub) string {
	t.Helper()
	select {
	case s := <-rec.statuses:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("export did not finish")
		return ""
	}
}

func TestExportRosterToCSV(t *testing.T) {
	svc, rec := newExports(t)

	job, err := svc.Request(context.Background(), 4, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, ExportQueued, job.Status)
	assert.Empty(t, job.DownloadURL)

	assert.Equal(t, "csv:done", waitStatus(t, rec))
	job, err = svc.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, ExportDone, job.Status)
	require.NotNil(t, job.FinishedAt)
	require.True(t, strings.HasPrefix(job.DownloadURL, "/api/v1/exports/"+job.ID+"/download?token="))

	link, err := url.Parse(job.DownloadURL)
	require.NoError(t, err)
	file, err := svc.Open(job.ID, link.Query().Get("token"))
	require.NoError(t, err)
	defer file.File.Close() //nolint:errcheck
	body, err := io.ReadAll(file.File)
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Name, job.ID+".csv"))
	assert.NotContains(t, file.Name, "/")
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Student,Email,Phone,Subscribed", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Bruno,bruno@school.test"))
}

func TestExportDownloadRejectsForeignToken(t *testing.T) {
	svc, rec := newExports(t)
	job, err := svc.Request(context.Background(), 4, export.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "xlsx:done", waitStatus(t, rec))

	other, _, err := storage.NewDownloadSigner("secret", time.Minute).Sign("another-export")
	require.NoError(t, err)
	_, err = svc.Open(job.ID, other)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestExportFailureIsRecorded(t *testing.T) {
	svc, rec := newExports(t)
	job, err := svc.Request(context.Background(), 99, export.FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "pdf:failed", waitStatus(t, rec))
	job, err = svc.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, ExportFailed, job.Status)
	assert.NotEmpty(t, job.Error)
	assert.Empty(t, job.DownloadURL)
}

func TestExportRequestValidation(t *testing.T) {
	svc, _ := newExports(t)
	_, err := svc.Request(context.Background(), 0, export.FormatCSV)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.Request(context.Background(), 4, export.Format("docx"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Get("missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
