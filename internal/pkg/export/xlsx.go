package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook renders the snapshot as an .xlsx workbook with one sheet per
// collection. Each sheet starts with a header row of the record fields in
// alphabetical order; nested values are written as JSON text.
func WriteWorkbook(snap *models.Snapshot, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, c := range local.AllCollections {
		sheet := c.CollectionName()
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}

		rows, header, err := flatten(c.Records(snap))
		if err != nil {
			return fmt.Errorf("failed to flatten %s: %w", sheet, err)
		}
		if err := writeRow(f, sheet, 1, toCells(header)); err != nil {
			return err
		}
		for r, row := range rows {
			cells := make([]interface{}, len(header))
			for col, key := range header {
				cells[col] = cellValue(row[key])
			}
			if err := writeRow(f, sheet, r+2, cells); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func flatten(records []models.Record) ([]map[string]interface{}, []string, error) {
	rows := make([]map[string]interface{}, 0, len(records))
	keys := map[string]struct{}{}
	for _, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, nil, err
		}
		var row map[string]interface{}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, nil, err
		}
		for k := range row {
			keys[k] = struct{}{}
		}
		rows = append(rows, row)
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)
	return rows, header, nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func cellValue(v interface{}) interface{} {
	switch v.(type) {
	case nil:
		return ""
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return v
	}
}
