// Package workbook serves organization rows from a local .xlsx workbook laid
// out like the production spreadsheet: one sheet per category with a header
// row. It stands in for the Apps Script backend in offline mode.
package workbook

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/normalize"
)

// Header is the column order used when a sheet has to be created.
var Header = []string{
	"ID", "Name", "Type", "Address", "Phone", "Website", "Email",
	"Latitude", "Longitude", "Country", "City", "Specialty", "Status",
}

// Backend reads and appends rows in a workbook file.
type Backend struct {
	mu   sync.Mutex
	path string
}

// Open returns a Backend for the workbook at path. The file must exist.
func Open(path string) (*Backend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "workbook: stat %s", path)
	}
	return &Backend{path: path}, nil
}

// Create writes an empty workbook at path with the hospital and association
// sheets and their header rows, and returns a Backend for it. An existing
// file is left untouched and reported as an error.
func Create(path string) (*Backend, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, eris.Errorf("workbook: %s already exists", path)
	}
	f := xlsx.NewFile()
	for _, name := range []string{model.SheetHospitals, model.SheetAssociations} {
		s, err := f.AddSheet(name)
		if err != nil {
			return nil, eris.Wrapf(err, "workbook: add sheet %s", name)
		}
		writeCells(s.AddRow(), Header)
	}
	if err := f.Save(path); err != nil {
		return nil, eris.Wrap(err, "workbook: save")
	}
	return &Backend{path: path}, nil
}

// FetchSheet returns the rows of one sheet. "all" returns the hospital and
// association sheets concatenated, filling blank Type cells per sheet.
func (b *Backend) FetchSheet(ctx context.Context, sheet string) ([]model.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "workbook: fetch")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := xlsx.OpenFile(b.path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}

	if sheet != model.SheetAll {
		s, ok := f.Sheet[sheet]
		if !ok {
			return nil, eris.Errorf("workbook: sheet %q not found", sheet)
		}
		return readRows(s, ""), nil
	}

	var rows []model.RawRow
	for _, part := range []struct{ name, defaultType string }{
		{model.SheetHospitals, model.DefaultHospitalType},
		{model.SheetAssociations, model.DefaultAssociationType},
	} {
		s, ok := f.Sheet[part.name]
		if !ok {
			zap.L().Debug("workbook: sheet missing", zap.String("sheet", part.name))
			continue
		}
		rows = append(rows, readRows(s, part.defaultType)...)
	}
	return rows, nil
}

// Append writes one JSON row to the sheet matching its type and returns a
// script-style status body.
func (b *Backend) Append(ctx context.Context, body []byte) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "workbook: append")
	}

	var row model.RawRow
	if err := json.Unmarshal(body, &row); err != nil {
		return nil, eris.Wrap(err, "workbook: decode row")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := xlsx.OpenFile(b.path)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}

	name := sheetFor(row.Type)
	s, ok := f.Sheet[name]
	if !ok {
		s, err = f.AddSheet(name)
		if err != nil {
			return nil, eris.Wrapf(err, "workbook: add sheet %s", name)
		}
	}
	header := headerOf(s)
	if len(header) == 0 {
		writeCells(s.AddRow(), Header)
		header = Header
	}
	writeCells(s.AddRow(), rowValues(row, header))

	if err := f.Save(b.path); err != nil {
		return nil, eris.Wrap(err, "workbook: save")
	}

	zap.L().Info("workbook: row appended", zap.String("sheet", name), zap.String("name", row.Name))
	return json.RawMessage(`{"status":"success","message":"Row added"}`), nil
}

func sheetFor(rawType string) string {
	if t, _ := normalize.CanonicalType(rawType); t == model.TypeAssociation {
		return model.SheetAssociations
	}
	return model.SheetHospitals
}

func readRows(s *xlsx.Sheet, defaultType string) []model.RawRow {
	header := headerOf(s)
	if len(header) == 0 {
		return nil
	}
	rows := make([]model.RawRow, 0, len(s.Rows)-1)
	for _, r := range s.Rows[1:] {
		cells := rowToStrings(r)
		fields := make(map[string]string, len(header))
		empty := true
		for i, h := range header {
			if i < len(cells) && cells[i] != "" {
				fields[h] = cells[i]
				empty = false
			}
		}
		if empty {
			continue
		}
		row := model.RowFromFields(fields)
		if row.Type == "" {
			row.Type = defaultType
		}
		rows = append(rows, row)
	}
	return rows
}

func headerOf(s *xlsx.Sheet) []string {
	if len(s.Rows) == 0 {
		return nil
	}
	header := rowToStrings(s.Rows[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return header
}

func rowValues(row model.RawRow, header []string) []string {
	values := map[string]string{
		"id": row.ID, "name": row.Name, "type": row.Type, "address": row.Address,
		"phone": row.Phone, "website": row.Website, "email": row.Email,
		"latitude": row.Latitude, "longitude": row.Longitude, "country": row.Country,
		"city": row.City, "specialty": row.Specialty, "status": row.Status,
	}
	out := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(h)
		if canonical, ok := spanishHeaders[key]; ok {
			key = canonical
		}
		out[i] = values[key]
	}
	return out
}

var spanishHeaders = map[string]string{
	"nombre": "name", "tipo": "type", "dirección": "address", "direccion": "address",
	"teléfono": "phone", "telefono": "phone", "sitio web": "website", "web": "website",
	"correo": "email", "latitud": "latitude", "longitud": "longitude", "país": "country",
	"pais": "country", "ciudad": "city", "especialidad": "specialty", "estado": "status",
}

func writeCells(r *xlsx.Row, values []string) {
	for _, v := range values {
		r.AddCell().SetString(v)
	}
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
