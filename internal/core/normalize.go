package core

import (
	"fmt"
	"strings"
)

// Normalize turns a raw worksheet into a ledger of donations.
//
// Columns with blank headers are dropped, repeated header names get numeric
// suffixes, short rows are padded with null, amount/month/year are coerced
// with CleanNumber, rows without an amount are skipped and administrative
// fee rows are excluded. The raw table is not modified.
func Normalize(raw RawTable, schema Schema) (Ledger, error) {
	if len(raw.Headers) == 0 {
		return Ledger{}, ErrEmptyTable
	}

	var (
		keep  []int
		names []string
	)
	for i, h := range raw.Headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		keep = append(keep, i)
		names = append(names, h)
	}
	columns := UniqueColumns(names)

	idx, err := locate(columns, schema)
	if err != nil {
		return Ledger{}, err
	}

	stats := NormalizeStats{RawRows: len(raw.Rows)}
	records := make([]Donation, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		values := make([]Cell, len(keep))
		for j, i := range keep {
			if i < len(row) {
				values[j] = row[i]
			} else {
				values[j] = Null
			}
		}

		amount := CleanNumber(values[idx.amount], schema.CurrencyToken)
		if !amount.Valid {
			stats.InvalidAmount++
			continue
		}
		month := CleanNumber(values[idx.month], schema.CurrencyToken)
		year := CleanNumber(values[idx.year], schema.CurrencyToken)
		primary := values[idx.primary].Value
		secondary := values[idx.secondary].Value

		if schema.IsAdministrative(primary, secondary) {
			stats.Excluded++
			continue
		}

		values[idx.amount] = numberCell(amount)
		values[idx.month] = numberCell(month)
		values[idx.year] = numberCell(year)

		records = append(records, Donation{
			Amount:    amount.Value,
			Month:     month,
			Year:      year,
			Primary:   primary,
			Secondary: secondary,
			Values:    values,
		})
	}
	stats.Kept = len(records)

	return Ledger{Columns: columns, Records: records, Stats: stats}, nil
}

// UniqueColumns renames repeated names: the first occurrence keeps the bare
// name, later ones become name_1, name_2, ... numbered per distinct name.
func UniqueColumns(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		count, ok := seen[n]
		if !ok {
			seen[n] = 0
			out = append(out, n)
			continue
		}
		count++
		seen[n] = count
		out = append(out, fmt.Sprintf("%s_%d", n, count))
	}
	return out
}

type columnIndex struct {
	amount, month, year, primary, secondary int
}

func locate(columns []string, schema Schema) (columnIndex, error) {
	find := func(name string) (int, error) {
		name = strings.TrimSpace(name)
		for i, c := range columns {
			if c == name {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}

	var (
		idx columnIndex
		err error
	)
	if idx.amount, err = find(schema.AmountColumn); err != nil {
		return idx, err
	}
	if idx.month, err = find(schema.MonthColumn); err != nil {
		return idx, err
	}
	if idx.year, err = find(schema.YearColumn); err != nil {
		return idx, err
	}
	if idx.primary, err = find(schema.PrimaryColumn); err != nil {
		return idx, err
	}
	if idx.secondary, err = find(schema.SecondaryColumn); err != nil {
		return idx, err
	}
	return idx, nil
}

func numberCell(n Number) Cell {
	if !n.Valid {
		return Null
	}
	return Text(n.String())
}
