package report

import (
	"encoding/csv"
	"io"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"SurgeScreener/internal/model"
)

// CSVHeader is the export header, in column order.
var CSVHeader = []string{"Symbol", "LTP", "Today's Volume", "7-Day Avg Volume", "Surge Ratio", "% Change"}

// CSVFilename is the suggested download name.
const CSVFilename = "volume_shockers.csv"

// Fixed2 renders v rounded to two decimals. Rounding applies to the exact
// binary value with ties to even, so 2.675 renders as 2.67 and 0.125 as 0.12.
func Fixed2(v float64) string {
	return exactDecimal(v).RoundBank(2).StringFixed(2)
}

// exactDecimal converts v without shortening it to its shortest decimal form.
func exactDecimal(v float64) decimal.Decimal {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	// mant * 2^exp == mant * 5^-exp * 10^exp
	pow5 := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, pow5), int32(exp))
}

// Record converts a row into its CSV fields.
func Record(r model.Row) []string {
	return []string{
		r.Symbol,
		Fixed2(r.LTP),
		strconv.FormatInt(r.TodayVolume, 10),
		strconv.FormatInt(int64(r.AvgVolume), 10),
		Fixed2(r.SurgeRatio),
		Fixed2(r.PctChange),
	}
}

// WriteCSV writes the header and one record per row, in the given order.
func WriteCSV(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(Record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
