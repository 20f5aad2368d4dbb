package core

import (
	"errors"
	"fmt"
	"strings"
)

// Schema names the ledger columns the pipeline depends on and the domain
// labels used by the administrative exclusion rule. Every other column is
// passed through untouched.
type Schema struct {
	AmountColumn    string
	MonthColumn     string
	YearColumn      string
	PrimaryColumn   string
	SecondaryColumn string

	// CurrencyToken is stripped from amounts and appended to displayed totals.
	CurrencyToken string

	// Rows whose trimmed activities equal both labels are administrative
	// fee entries and never count as donations.
	GeneralCharityLabel string
	AdminShareLabel     string
}

// DefaultSchema returns the column layout of the association's
// "تجميع مدخلات" worksheet.
func DefaultSchema() Schema {
	return Schema{
		AmountColumn:        "التبرع قبل خصم المصاريف الادارية",
		MonthColumn:         "الشهر",
		YearColumn:          "السنة",
		PrimaryColumn:       "النشاط الأساسي",
		SecondaryColumn:     "النشاط الفرعي",
		CurrencyToken:       "جنيه",
		GeneralCharityLabel: "صدقة عامة",
		AdminShareLabel:     "اداريات نسبه من التبرع",
	}
}

// Validate reports every empty field.
func (s Schema) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"amount column", s.AmountColumn},
		{"month column", s.MonthColumn},
		{"year column", s.YearColumn},
		{"primary activity column", s.PrimaryColumn},
		{"secondary activity column", s.SecondaryColumn},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid ledger schema: empty %s", strings.Join(missing, ", "))
	}
	noCharity := strings.TrimSpace(s.GeneralCharityLabel) == ""
	noAdmin := strings.TrimSpace(s.AdminShareLabel) == ""
	if noCharity != noAdmin {
		return errors.New("invalid ledger schema: exclusion labels must be set together")
	}
	return nil
}

// IsAdministrative reports whether a row is an administrative fee entry.
// Both activities are compared after trimming surrounding whitespace.
func (s Schema) IsAdministrative(primary, secondary string) bool {
	if s.GeneralCharityLabel == "" && s.AdminShareLabel == "" {
		return false
	}
	return strings.TrimSpace(primary) == strings.TrimSpace(s.GeneralCharityLabel) &&
		strings.TrimSpace(secondary) == strings.TrimSpace(s.AdminShareLabel)
}

// Column returns the header name of a chart dimension.
func (s Schema) Column(d Dimension) string {
	if d == DimensionPrimary {
		return s.PrimaryColumn
	}
	return s.SecondaryColumn
}
