package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Required inventory columns.
const (
	ColumnVApp     = "vapp"
	ColumnHostname = "hostname"
	ColumnTemplate = "template"
	ColumnExpires  = "expires"
)

var requiredColumns = []string{ColumnVApp, ColumnHostname, ColumnTemplate, ColumnExpires}

// LoadError reports an inventory source that is missing or cannot be parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load inventory %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Row is one host entry of the inventory.
type Row struct {
	VApp     string
	Hostname string
	Template string
	Expires  string

	// Fields holds every column of the row, including the ones above.
	Fields map[string]string
}

// HostID is the identity a provisioned machine must carry to occupy this row.
func (r Row) HostID() string {
	return r.VApp + "/" + r.Hostname
}

// Inventory is the parsed inventory, rows in file order.
type Inventory struct {
	Columns []string
	Rows    []Row
}

// Load reads the CSV inventory at path.
func Load(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("file not found")}
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a CSV inventory with a header row. name is used in errors only.
func Parse(r io.Reader, name string) (*Inventory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("no header row")}
	}
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		columns[i] = h
		index[h] = i
	}
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("missing required column %q", c)}
		}
	}

	inv := &Inventory{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: name, Err: err}
		}
		if blank(record) {
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(record) {
				fields[c] = strings.TrimSpace(record[i])
			} else {
				fields[c] = ""
			}
		}
		inv.Rows = append(inv.Rows, Row{
			VApp:     fields[ColumnVApp],
			Hostname: fields[ColumnHostname],
			Template: fields[ColumnTemplate],
			Expires:  fields[ColumnExpires],
			Fields:   fields,
		})
	}

	return inv, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ForPath returns the rows whose vapp, stripped of surrounding slashes,
// ends with suffix.
func (inv *Inventory) ForPath(suffix string) []Row {
	var out []Row
	for _, row := range inv.Rows {
		if strings.HasSuffix(strings.Trim(row.VApp, "/"), suffix) {
			out = append(out, row)
		}
	}
	return out
}

// ForTemplate narrows ForPath(suffix) to rows of the given machine type.
func (inv *Inventory) ForTemplate(suffix, machineType string) []Row {
	return FilterTemplate(inv.ForPath(suffix), machineType)
}

// FilterTemplate returns the rows whose template equals machineType, in order.
func FilterTemplate(rows []Row, machineType string) []Row {
	var out []Row
	for _, row := range rows {
		if row.Template == machineType {
			out = append(out, row)
		}
	}
	return out
}
