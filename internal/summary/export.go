package summary

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/rotisserie/eris"

	"github.com/gasred/estaciones-backoffice/internal/store"
)

type exportRow struct {
	Station   string  `dataframe:"station"`
	Date      string  `dataframe:"date"`
	Product   string  `dataframe:"product"`
	Price     float64 `dataframe:"price"`
	Liters    float64 `dataframe:"liters"`
	Amount    float64 `dataframe:"amount"`
	ShrinkPct float64 `dataframe:"shrink_pct"`
	Oils      float64 `dataframe:"oils"`
}

// WriteCSV streams the zone-month lines as CSV.
func WriteCSV(w io.Writer, lines []store.ZoneMonthLine) error {
	rows := make([]exportRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, exportRow{
			Station:   line.StationName,
			Date:      line.ReportDate.Format("2006-01-02"),
			Product:   line.Product,
			Price:     line.Price,
			Liters:    line.Liters,
			Amount:    line.Amount,
			ShrinkPct: line.ShrinkPct,
			Oils:      line.Oils,
		})
	}

	if len(rows) == 0 {
		_, err := io.WriteString(w, "station,date,product,price,liters,amount,shrink_pct,oils\n")
		return err
	}

	df := dataframe.LoadStructs(rows)
	if df.Error() != nil {
		return eris.Wrap(df.Error(), "build export dataframe")
	}
	if err := df.WriteCSV(w); err != nil {
		return eris.Wrap(err, "write export csv")
	}
	return nil
}
