package util

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//*******************************************
// yaml files
//*******************************************

func WriteYAMLToFile[T any](value T, file string) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return eris.Wrapf(err, "util: encode %s", file)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return eris.Wrapf(err, "util: write %s", file)
	}
	return nil
}

func ReadYAMLFromFile[T any](file string) (T, error) {
	var value T
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return value, eris.Errorf("util: file not found: %s", file)
	}
	if err != nil {
		return value, eris.Wrapf(err, "util: read %s", file)
	}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return value, eris.Wrapf(err, "util: decode %s", file)
	}
	return value, nil
}

//*******************************************
// csv files
//*******************************************

// CSVTable is a delimited file read as plain strings.
type CSVTable struct {
	Header []string
	Rows   [][]string
}

// Column returns the position of name in the header or -1.
func (self *CSVTable) Column(name string) int {
	for i, h := range self.Header {
		if h == name {
			return i
		}
	}
	return -1
}

func ReadCSVTableFromFile(filename string, delimiter rune) (CSVTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return CSVTable{}, eris.Wrapf(err, "util: open %s", filename)
	}
	defer file.Close()

	table, err := ReadCSVTable(file, delimiter)
	if err != nil {
		return CSVTable{}, eris.Wrapf(err, "util: read %s", filename)
	}
	return table, nil
}

// ReadCSVTable reads a header row followed by records of matching width.
func ReadCSVTable(reader io.Reader, delimiter rune) (CSVTable, error) {
	r := csv.NewReader(reader)
	r.Comma = delimiter
	header, err := r.Read()
	if err != nil {
		return CSVTable{}, eris.Wrap(err, "util: read csv header")
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}
	rows := make([][]string, 0, 100)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return CSVTable{}, eris.Wrap(err, "util: read csv record")
		}
		rows = append(rows, record)
	}
	return CSVTable{Header: header, Rows: rows}, nil
}

type _CSVField struct {
	index    int
	column   int
	kind     reflect.Kind
	name     string
	required bool
}

func ReadCSVFromFile[T any](filename string, delimiter rune) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "util: open %s", filename)
	}
	defer file.Close()

	values, err := ReadCSV[T](file, delimiter)
	if err != nil {
		return nil, eris.Wrapf(err, "util: read %s", filename)
	}
	return values, nil
}

// ReadCSV decodes records into the struct T using its `csv` field tags.
//
// A tag "name,required" fails if the column is missing from the header. Columns
// without a matching field are ignored and empty cells keep the zero value.
func ReadCSV[T any](reader io.Reader, delimiter rune) ([]T, error) {
	table, err := ReadCSVTable(reader, delimiter)
	if err != nil {
		return nil, err
	}
	name_row_mapping := make(map[string]int, len(table.Header))
	for i, name := range table.Header {
		name_row_mapping[name] = i
	}

	var val T
	typ := reflect.TypeOf(val)
	if typ.Kind() != reflect.Struct {
		return nil, eris.Errorf("util: csv target %v is not a struct", typ)
	}
	fields := make([]_CSVField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("csv")
		if tag == "" || tag == "-" {
			continue
		}
		name, opt, _ := strings.Cut(tag, ",")
		row, ok := name_row_mapping[name]
		if !ok {
			if opt == "required" {
				return nil, eris.Errorf("util: missing csv column %q", name)
			}
			continue
		}
		kind := field.Type.Kind()
		switch kind {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			kind = reflect.Int
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			kind = reflect.Uint
		case reflect.Float32, reflect.Float64:
			kind = reflect.Float64
		case reflect.Bool, reflect.String:
		default:
			return nil, eris.Errorf("util: unsupported csv field type %v of %s", field.Type, field.Name)
		}
		fields = append(fields, _CSVField{index: i, column: row, kind: kind, name: name, required: opt == "required"})
	}

	values := make([]T, 0, len(table.Rows))
	for line, record := range table.Rows {
		t := reflect.New(typ).Elem()
		for _, field := range fields {
			value := strings.TrimSpace(record[field.column])
			if value == "" {
				if field.required {
					return nil, eris.Errorf("util: empty required column %q in record %d", field.name, line+1)
				}
				continue
			}
			f := t.Field(field.index)
			var err error
			switch field.kind {
			case reflect.Bool:
				var b bool
				b, err = _ParseBool(value)
				f.SetBool(b)
			case reflect.Int:
				var num int64
				num, err = strconv.ParseInt(value, 10, 64)
				f.SetInt(num)
			case reflect.Uint:
				var num uint64
				num, err = strconv.ParseUint(value, 10, 64)
				f.SetUint(num)
			case reflect.Float64:
				var num float64
				num, err = strconv.ParseFloat(value, 64)
				f.SetFloat(num)
			case reflect.String:
				f.SetString(value)
			}
			if err != nil {
				return nil, eris.Wrapf(err, "util: column %q in record %d", field.name, line+1)
			}
		}
		values = append(values, t.Interface().(T))
	}
	return values, nil
}

func _ParseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(value)
}
