package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NoSubmodel marks a model row without sub-models.
const NoSubmodel = "NA"

// SubmodelSeparator splits several sub-models listed in one cell.
const SubmodelSeparator = " / "

// ModelRow is one line of the taxonomy sheet: make, model and the
// sub-models under that model.
type ModelRow struct {
	Make      string
	Model     string
	Submodels []string
}

// FolderRow maps a variant, by full name, to its image and audio folders.
// An empty folder means there is nothing to import.
type FolderRow struct {
	FullName    string
	ImageFolder string
	AudioFolder string
}

// ParseModelRows reads make,model,submodel rows. A leading header row is
// skipped.
func ParseModelRows(r io.Reader) ([]ModelRow, error) {
	records, err := readRecords(r, "make")
	if err != nil {
		return nil, err
	}

	rows := make([]ModelRow, 0, len(records))
	for _, rec := range records {
		row := ModelRow{Make: rec.cell(0), Model: rec.cell(1)}
		if row.Make == "" || row.Model == "" {
			return nil, fmt.Errorf("line %d: make and model are required", rec.line)
		}
		if sub := rec.cell(2); sub != "" && sub != NoSubmodel {
			for _, name := range strings.Split(sub, SubmodelSeparator) {
				if name = strings.TrimSpace(name); name != "" {
					row.Submodels = append(row.Submodels, name)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseFolderRows reads full_name,image_folder,audio_folder rows. A leading
// header row is skipped.
func ParseFolderRows(r io.Reader) ([]FolderRow, error) {
	records, err := readRecords(r, "full_name")
	if err != nil {
		return nil, err
	}

	rows := make([]FolderRow, 0, len(records))
	for _, rec := range records {
		row := FolderRow{
			FullName:    rec.cell(0),
			ImageFolder: folder(rec.cell(1)),
			AudioFolder: folder(rec.cell(2)),
		}
		if row.FullName == "" {
			return nil, fmt.Errorf("line %d: full name is required", rec.line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type record struct {
	line   int
	fields []string
}

func (r record) cell(i int) string {
	if i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func folder(s string) string {
	if strings.EqualFold(s, NoSubmodel) {
		return ""
	}
	return s
}

// readRecords returns the non-blank records of r, dropping the first one
// when its first cell equals header.
func readRecords(r io.Reader, header string) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rec := record{line: line, fields: fields}
		if len(out) == 0 && line == 1 && strings.EqualFold(rec.cell(0), header) {
			continue
		}
		if strings.Join(fields, "") == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
