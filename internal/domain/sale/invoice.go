package sale

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// invoicePrefix is the fixed leading segment of every invoice number.
const invoicePrefix = "INV"

// FormatInvoiceNo renders an invoice number as INV-YYYY-NNNN. The sequence
// is zero-padded to four digits and widens naturally past 9999.
func FormatInvoiceNo(year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", invoicePrefix, year, seq)
}

// ParseInvoiceNo splits an invoice number into its year and sequence parts.
// Anything that does not strictly match INV-YYYY-NNNN is reported as
// ErrMalformedInvoiceNo; a corrupt stored number must surface, not silently
// restart the sequence.
func ParseInvoiceNo(no string) (year, seq int, err error) {
	parts := strings.Split(no, "-")
	if len(parts) != 3 || parts[0] != invoicePrefix {
		return 0, 0, errors.Wrapf(ErrMalformedInvoiceNo, "%q", no)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 || year <= 0 {
		return 0, 0, errors.Wrapf(ErrMalformedInvoiceNo, "%q: bad year", no)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) < 4 || seq <= 0 {
		return 0, 0, errors.Wrapf(ErrMalformedInvoiceNo, "%q: bad sequence", no)
	}

	return year, seq, nil
}

// NextInvoiceNo returns the number that follows last within year. An empty
// last, or a last issued in an earlier year, starts the year's sequence at
// 0001. A malformed last is an error.
func NextInvoiceNo(last string, year int) (string, error) {
	if last == "" {
		return FormatInvoiceNo(year, 1), nil
	}

	lastYear, lastSeq, err := ParseInvoiceNo(last)
	if err != nil {
		return "", err
	}
	if lastYear != year {
		return FormatInvoiceNo(year, 1), nil
	}
	return FormatInvoiceNo(year, lastSeq+1), nil
}
