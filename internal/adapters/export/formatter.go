// Package export renders entry snapshots as xlsx workbooks and writes them
// to the export directory.
package export

import (
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/errs"
	"github.com/xuri/excelize/v2"
)

const (
	// SheetName is the only sheet in an export workbook.
	SheetName = "Registrations"

	opFormat = "export.format"
	opRead   = "export.read"
)

// Header is the first row of every export. The entry id is not exported.
var Header = []string{"First Name", "Surname", "Email", "Number", "Winner"}

var columnWidths = []float64{15, 15, 25, 12, 10}

// Formatter turns entries into xlsx bytes.
type Formatter struct{}

// NewFormatter returns an xlsx formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// Format renders entries, in the order given, below a bold header row.
// It fails with ErrNoData when entries is empty.
func (Formatter) Format(entries []model.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errs.NewKind(opFormat, ErrNoData)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
		}
		row := []interface{}{e.FirstName, e.Surname, e.Email, e.Number, winnerText(e.Winner)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
		}
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
		}
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errs.WrapKind(opFormat, ErrWriteFailure, err)
	}
	return buf.Bytes(), nil
}

func winnerText(w bool) string {
	if w {
		return "YES"
	}
	return "NO"
}
