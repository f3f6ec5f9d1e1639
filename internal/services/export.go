package services

import (
	"fmt"
	"io"

	"toursite-backend-go/internal/models"

	"github.com/xuri/excelize/v2"
)

const bookingSheet = "Bookings"

var bookingHeaders = []string{"Created", "Name", "Email", "Phone", "Guests", "Package", "Travel date", "Status", "Message", "Admin notes"}

var statusFills = map[models.BookingStatus]string{
	models.BookingPending:   "#FFEB9C",
	models.BookingConfirmed: "#C6EFCE",
	models.BookingCancelled: "#FFC7CE",
	models.BookingCompleted: "#DDEBF7",
}

// WriteBookingsXLSX renders inquiries as a single-sheet workbook.
func WriteBookingsXLSX(w io.Writer, bookings []models.BookingInquiry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", bookingSheet); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	statusStyles := map[models.BookingStatus]int{}
	for status, color := range statusFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		statusStyles[status] = style
	}

	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingSheet, cell, header)
		_ = f.SetCellStyle(bookingSheet, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(bookingSheet, "A", "A", 20)
	_ = f.SetColWidth(bookingSheet, "B", "D", 24)
	_ = f.SetColWidth(bookingSheet, "F", "F", 24)
	_ = f.SetColWidth(bookingSheet, "I", "J", 40)

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
			b.Name,
			b.Email,
			b.Phone,
			b.Guests,
			b.PackageSlug,
			b.TravelDate.Format("2006-01-02"),
			string(b.Status),
			b.Message,
			b.AdminNotes,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(bookingSheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if style, ok := statusStyles[b.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(8, row)
			_ = f.SetCellStyle(bookingSheet, cell, cell, style)
		}
	}
	_ = f.SetPanes(bookingSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	_, err = f.WriteTo(w)
	return err
}
