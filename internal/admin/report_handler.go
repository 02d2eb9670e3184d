package admin

import (
	"strconv"
	"strings"

	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ReportRow struct {
	Ts           int64   `json:"ts"`
	Time         string  `json:"time"`
	LocationName string  `json:"location_name"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Unit         *string `json:"unit"`
	Type         string  `json:"type"`
	Qty          int     `json:"qty"`
	Source       string  `json:"source"`
	UserName     string  `json:"user_name"`
	TransferID   string  `json:"transfer_id,omitempty"`
}

// ReportFilter: boş alanlar filtre uygulamaz (tüm depolar / tüm zamanlar).
type ReportFilter struct {
	LocationID *uint
	ItemCode   string
	Type       string
	FromTs     *int64
	ToTs       *int64
}

const reportLimit = 5000

// BuildReport: hareket defterinin depolar arası kesiti, en yeni önce.
func BuildReport(f ReportFilter) ([]ReportRow, error) {
	dbq := database.DB.Model(&models.Operation{}).
		Preload("Location").
		Preload("StockItem").
		Preload("User").
		Preload("Transfer")

	if f.LocationID != nil {
		dbq = dbq.Where("operations.location_id = ?", *f.LocationID)
	}
	if code := strings.TrimSpace(f.ItemCode); code != "" {
		dbq = dbq.Joins("JOIN stock_items ON stock_items.id = operations.stock_item_id").
			Where("stock_items.code = ?", code)
	}
	if f.Type != "" {
		dbq = dbq.Where("operations.type = ?", f.Type)
	}
	if f.FromTs != nil {
		dbq = dbq.Where("operations.ts >= ?", *f.FromTs)
	}
	if f.ToTs != nil {
		dbq = dbq.Where("operations.ts <= ?", *f.ToTs)
	}

	var ops []models.Operation
	if err := dbq.Order("operations.ts DESC").Limit(reportLimit).Find(&ops).Error; err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(ops))
	for _, op := range ops {
		row := ReportRow{
			Ts:           op.Ts,
			Time:         op.Time,
			LocationName: op.Location.Name,
			Code:         op.StockItem.Code,
			Name:         op.StockItem.Name,
			Unit:         op.StockItem.Unit,
			Type:         string(op.Type),
			Qty:          op.Qty,
			Source:       op.Source,
			UserName:     op.User.Name,
		}
		if op.Transfer != nil {
			row.TransferID = op.Transfer.PublicID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func reportFilterFromQuery(c *fiber.Ctx) (ReportFilter, error) {
	var f ReportFilter

	if lidStr := c.Query("location_id"); lidStr != "" && lidStr != "all" {
		lid, err := parseUintParam(lidStr)
		if err != nil || lid == 0 {
			return f, fiber.NewError(fiber.StatusBadRequest, "Geçersiz location_id")
		}
		f.LocationID = &lid
	}

	f.ItemCode = c.Query("item_code")

	if opType := c.Query("type"); opType != "" {
		if opType != string(models.OperationIn) && opType != string(models.OperationOut) {
			return f, fiber.NewError(fiber.StatusBadRequest, "Tip 'in' veya 'out' olmalı")
		}
		f.Type = opType
	}

	if s := c.Query("from_ts"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "Geçersiz from_ts")
		}
		f.FromTs = &v
	}
	if s := c.Query("to_ts"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "Geçersiz to_ts")
		}
		f.ToTs = &v
	}

	return f, nil
}

// GET /api/report?location_id=3|all&item_code=&type=&from_ts=&to_ts=
func ReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := reportFilterFromQuery(c)
		if err != nil {
			return err
		}

		rows, err := BuildReport(f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor alınamadı")
		}
		return c.JSON(rows)
	}
}

// GET /api/report/export — aynı filtrelerle xlsx çıktısı.
func ReportExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := reportFilterFromQuery(c)
		if err != nil {
			return err
		}

		rows, err := BuildReport(f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor alınamadı")
		}

		xf := excelize.NewFile()
		defer xf.Close()

		const sheet = "Rapor"
		xf.SetSheetName("Sheet1", sheet)

		headers := []string{"Tarih", "Depo", "Barkod", "Ürün", "Birim", "Tip", "Miktar", "Kaynak/Hedef", "Kullanıcı", "Transfer"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			xf.SetCellValue(sheet, cell, h)
		}

		for r, row := range rows {
			unit := ""
			if row.Unit != nil {
				unit = *row.Unit
			}
			values := []any{row.Time, row.LocationName, row.Code, row.Name, unit, row.Type, row.Qty, row.Source, row.UserName, row.TransferID}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				xf.SetCellValue(sheet, cell, v)
			}
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="stok-raporu.xlsx"`)

		buf, err := xf.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor dosyası oluşturulamadı")
		}
		return c.Send(buf.Bytes())
	}
}
