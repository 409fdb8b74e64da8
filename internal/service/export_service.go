package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/repository"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// Export kinds.
const (
	ExportContacts = "contacts"
	ExportLogs     = "logs"
)

var (
	contactsHeader = []string{"id", "name", "email", "phone", "subject", "message", "status", "replies", "created_at"}
	logsHeader     = []string{"id", "at", "actor", "action", "target", "detail"}
)

// ExportService streams collections as CSV.
type ExportService struct {
	inquiries repository.InquiryRepository
	logs      repository.ActivityLogRepository
}

// ExportDependencies bundles requirements for the export service.
type ExportDependencies struct {
	InquiryRepo     repository.InquiryRepository
	ActivityLogRepo repository.ActivityLogRepository
}

// NewExportService constructs the service.
func NewExportService(deps ExportDependencies) *ExportService {
	return &ExportService{inquiries: deps.InquiryRepo, logs: deps.ActivityLogRepo}
}

// ValidExportKind reports whether kind can be exported.
func ValidExportKind(kind string) bool {
	return kind == ExportContacts || kind == ExportLogs
}

// Export writes a header row followed by one row per document. An empty
// collection produces the header only.
func (s *ExportService) Export(ctx context.Context, kind string, w io.Writer) error {
	writer := csv.NewWriter(w)
	var err error
	switch kind {
	case ExportContacts:
		err = s.writeContacts(ctx, writer)
	case ExportLogs:
		err = s.writeLogs(ctx, writer)
	default:
		return apperrors.NewNotFound("export", map[string]any{"kind": kind})
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	writer.Flush()
	return writer.Error()
}

func (s *ExportService) writeContacts(ctx context.Context, writer *csv.Writer) error {
	if err := writer.Write(contactsHeader); err != nil {
		return err
	}
	return s.inquiries.Each(ctx, func(i *domain.Inquiry) error {
		return writer.Write([]string{
			i.ID,
			i.Name,
			i.Email,
			i.Phone,
			i.Subject,
			i.Message,
			string(i.Status),
			strconv.Itoa(len(i.Replies)),
			i.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
}

func (s *ExportService) writeLogs(ctx context.Context, writer *csv.Writer) error {
	if err := writer.Write(logsHeader); err != nil {
		return err
	}
	return s.logs.Each(ctx, func(l *domain.ActivityLog) error {
		actor := l.ActorName
		if actor == "" {
			actor = l.ActorID
		}
		return writer.Write([]string{
			l.ID,
			l.At.UTC().Format(time.RFC3339),
			actor,
			string(l.Action),
			l.Target,
			l.Detail,
		})
	})
}
