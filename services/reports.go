package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"photoshare/db"
	"photoshare/models"

	"gorm.io/gorm"
)

var reportTargetKinds = map[string]bool{
	"user":    true,
	"album":   true,
	"image":   true,
	"comment": true,
}

const MAX_REPORT_REASON_BYTES = 1024

// truncateUTF8 обрезает строку до max байт, не разрывая многобайтовый символ
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

type ReportService struct {
	orm *gorm.DB
}

func NewReportService(orm *gorm.DB) *ReportService {
	return &ReportService{orm: orm}
}

// Report сохраняет жалобу для модераторов
func (s *ReportService) Report(ctx context.Context, reporterID, targetKind, targetID, reason string) (*models.Report, error) {
	if !reportTargetKinds[targetKind] {
		return nil, ErrInvalidInput("unknown report target")
	}
	if targetID == "" {
		return nil, ErrInvalidInput("target id is required")
	}
	if targetKind == "user" && targetID == reporterID {
		return nil, ErrInvalidInput("cannot report yourself")
	}
	reason = truncateUTF8(strings.TrimSpace(reason), MAX_REPORT_REASON_BYTES)

	report := &models.Report{
		ReporterID: reporterID,
		TargetKind: targetKind,
		TargetID:   targetID,
		Reason:     reason,
	}
	if err := db.GetWriteDB(ctx, s.orm).Create(report).Error; err != nil {
		return nil, errUnknown("failed to save report", err)
	}
	return report, nil
}
