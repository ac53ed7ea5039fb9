package export

import (
	"bytes"
	"fmt"

	"github.com/okian/raffle/pkg/errs"
	"github.com/xuri/excelize/v2"
)

// Read returns the rows of the Registrations sheet in data, header included.
func Read(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(opRead, fmt.Errorf("open xlsx: %w", err))
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, errs.Wrap(opRead, fmt.Errorf("read sheet %q: %w", SheetName, err))
	}
	return rows, nil
}
