package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jfpDev/bankTransations/internal/adapter/http/dto"
	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/format"
)

var fieldLabels = map[domain.Field]string{
	domain.FieldAmount:           "monto",
	domain.FieldBusinessCategory: "giro",
	domain.FieldCounterpartyName: "nombre",
	domain.FieldTransactionDate:  "fecha",
}

func printTable(w io.Writer, records []domain.Transaction, loc *time.Location) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No hay transacciones")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFECHA\tMONTO\tGIRO\tNOMBRE")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID,
			format.FormatDate(r.TransactionDate, loc),
			format.FormatCurrency(r.Amount),
			format.Truncate(r.BusinessCategory, format.DefaultTruncateLength),
			format.Truncate(r.CounterpartyName, format.DefaultTruncateLength),
		)
	}
	tw.Flush()
}

func printRecord(w io.Writer, r domain.Transaction, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", r.ID)
	fmt.Fprintf(tw, "Fecha:\t%s\n", format.FormatDate(r.TransactionDate, loc))
	fmt.Fprintf(tw, "Monto:\t%s\n", format.FormatCurrency(r.Amount))
	fmt.Fprintf(tw, "Giro:\t%s\n", r.BusinessCategory)
	fmt.Fprintf(tw, "Nombre:\t%s\n", r.CounterpartyName)
	tw.Flush()
}

// printJSON writes records in the service's wire shape.
func printJSON(w io.Writer, records []domain.Transaction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.TransactionsFromDomain(records))
}
