package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"wisefido-tenants/internal/domain"

	"github.com/xuri/excelize/v2"
)

// TenantsExportHeader 租户导出表头
var TenantsExportHeader = []string{
	"Client ID",
	"Schema Name",
	"Tenant Name",
	"Email",
	"Phone",
	"Status",
	"Status Reason",
	"Created At",
	"Updated At",
}

// GenerateTenantsExport 生成租户列表 Excel 文件；tenants 为空时只生成表头
func GenerateTenantsExport(tenants []*domain.Tenant) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Tenants"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range TenantsExportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
	}

	for row, t := range tenants {
		values := []any{
			t.ClientID,
			t.SchemaName,
			t.TenantName,
			t.Email,
			t.Phone,
			t.Status,
			t.StatusReason,
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set data cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	_ = f.Close()
	return buf.Bytes(), nil
}
