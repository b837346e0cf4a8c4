package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService 需求导出服务
type ExportService struct {
	repo   *repository.RequirementRepository
	logger *zap.Logger
}

// NewExportService 创建需求导出服务
func NewExportService(repo *repository.RequirementRepository, logger *zap.Logger) *ExportService {
	return &ExportService{repo: repo, logger: logger}
}

const exportSheet = "Requirements"

var exportHeaders = []string{
	"ID", "Customer", "Contact", "Type", "Status", "Details",
	"Images", "Videos", "Comments", "Last Comment", "Created", "Updated",
}

const exportTimeLayout = "2006-01-02 15:04:05"

// Export 导出需求列表为xlsx
func (s *ExportService) Export(ctx context.Context) (*excelize.File, string, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, "", storeError(s.logger, "export requirements", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(exportSheet, cell, h)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for idx, item := range items {
		row := idx + 2
		lastComment := ""
		if item.LastCommentAt != nil {
			lastComment = item.LastCommentAt.UTC().Format(exportTimeLayout)
		}
		values := []interface{}{
			item.ID,
			item.Customer,
			item.Contact,
			item.Type,
			item.Status,
			item.Details,
			strings.Join(item.Images, "\n"),
			strings.Join(item.Videos, "\n"),
			len(item.Comments),
			lastComment,
			item.CreatedAt.UTC().Format(exportTimeLayout),
			item.UpdatedAt.UTC().Format(exportTimeLayout),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("write row %d: %w", row, err)
		}
	}

	colWidths := []float64{8, 24, 20, 18, 14, 48, 32, 32, 10, 20, 20, 20}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, w)
	}

	filename := fmt.Sprintf("requirements_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}
