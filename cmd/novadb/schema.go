package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tuannm99/novadb/internal/datum"
	"github.com/tuannm99/novadb/internal/record"
)

// parseSchema parses CLI column specs of the form "name:TYPE", one of
// INT, VARCHAR, BOOL, FLOAT, DATE, or CHAR(n), optionally suffixed
// ":pk" to mark it part of the primary key. The CLI has no notion of
// nullability or foreign keys; every column is created NOT NULL.
func parseSchema(specs []string) (record.Schema, error) {
	var s record.Schema
	for i, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return record.Schema{}, fmt.Errorf("novadb: bad column spec %q (want name:TYPE[:pk])", spec)
		}
		typ, err := parseDataType(parts[1])
		if err != nil {
			return record.Schema{}, fmt.Errorf("novadb: column %q: %w", parts[0], err)
		}
		s.Columns = append(s.Columns, record.Column{Name: parts[0], Type: typ})
		if len(parts) > 2 && parts[2] == "pk" {
			s.PrimaryIdx = append(s.PrimaryIdx, i)
		}
	}
	return s, nil
}

func parseDataType(spec string) (datum.DataType, error) {
	upper := strings.ToUpper(spec)
	if strings.HasPrefix(upper, "CHAR(") && strings.HasSuffix(upper, ")") {
		width, err := strconv.Atoi(upper[5 : len(upper)-1])
		if err != nil {
			return datum.DataType{}, fmt.Errorf("bad CHAR width in %q", spec)
		}
		return datum.Char(uint32(width), false), nil
	}
	switch upper {
	case "INT":
		return datum.Int(false), nil
	case "VARCHAR":
		return datum.VarChar(false), nil
	case "BOOL":
		return datum.Bool(false), nil
	case "FLOAT":
		return datum.Float(false), nil
	case "DATE":
		return datum.Date(false), nil
	default:
		return datum.DataType{}, fmt.Errorf("unknown type %q", spec)
	}
}

// parseValues parses one literal per column of s, in order, according
// to each column's family.
func parseValues(s *record.Schema, literals []string) ([]datum.Datum, error) {
	if len(literals) != len(s.Columns) {
		return nil, fmt.Errorf("novadb: expected %d values, got %d", len(s.Columns), len(literals))
	}
	vals := make([]datum.Datum, len(literals))
	for i, lit := range literals {
		v, err := parseValue(s.Columns[i].Type, lit)
		if err != nil {
			return nil, fmt.Errorf("novadb: column %q: %w", s.Columns[i].Name, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseValue(t datum.DataType, lit string) (datum.Datum, error) {
	switch t.Family {
	case datum.FamilyInt:
		n, err := strconv.ParseInt(lit, 10, 32)
		if err != nil {
			return datum.Datum{}, err
		}
		return datum.NewInt(int32(n)), nil
	case datum.FamilyVarChar:
		return datum.NewVarChar(lit), nil
	case datum.FamilyChar:
		return datum.NewChar(t.CharLen, lit)
	case datum.FamilyBool:
		b, err := strconv.ParseBool(lit)
		if err != nil {
			return datum.Datum{}, err
		}
		return datum.NewBool(b), nil
	case datum.FamilyFloat:
		f, err := strconv.ParseFloat(lit, 32)
		if err != nil {
			return datum.Datum{}, err
		}
		return datum.NewFloat(float32(f)), nil
	case datum.FamilyDate:
		tm, err := time.Parse("2006-01-02", lit)
		if err != nil {
			return datum.Datum{}, err
		}
		return datum.DateFromTime(tm), nil
	default:
		return datum.Datum{}, fmt.Errorf("unsupported column family %s", t.Family)
	}
}

// formatDatum renders a datum back to a human-readable literal for scan
// and lookup output.
func formatDatum(d datum.Datum) string {
	if d.Null {
		return "NULL"
	}
	switch d.Type.Family {
	case datum.FamilyInt:
		return strconv.Itoa(int(d.I))
	case datum.FamilyVarChar, datum.FamilyChar:
		return d.S
	case datum.FamilyBool:
		return strconv.FormatBool(d.B)
	case datum.FamilyFloat:
		return strconv.FormatFloat(float64(d.F), 'g', -1, 32)
	case datum.FamilyDate:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	default:
		return fmt.Sprintf("<%s>", d.Type.Family)
	}
}
