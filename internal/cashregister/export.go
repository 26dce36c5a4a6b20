package cashregister

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/view"
)

var exportZone = time.FixedZone("ART", -3*60*60)

const exportTimeLayout = "2006-01-02 15:04"

var exportHeader = []string{
	"Fecha", "Pedido", "Cliente", "Teléfono", "Estado", "Pago", "Items", "Total", "CAE", "Factura",
}

// ExportName is the download file name of a session export.
func ExportName(r Register) string {
	return "caja-" + r.OpeningTime.In(exportZone).Format("20060102-1504") + ".csv"
}

// Export writes the orders of a session as CSV followed by a summary block.
func (s *Service) Export(ctx context.Context, businessID, id string, w io.Writer) error {
	sum, err := s.Summarize(ctx, businessID, id)
	if err != nil {
		return err
	}
	return writeCSV(w, sum)
}

func writeCSV(w io.Writer, sum Summary) error {
	out := csv.NewWriter(w)
	if err := out.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range sum.Orders {
		cae, number := "", ""
		if o.Invoiced() {
			cae = o.Invoice.CAE
			number = fmt.Sprintf("%05d-%08d", o.Invoice.PointOfSale, o.Invoice.Number)
		}
		if err := out.Write([]string{
			o.CreatedAt.In(exportZone).Format(exportTimeLayout),
			o.ID,
			o.CustomerName,
			o.CustomerPhone,
			view.StatusLabel(o.Status),
			o.PaymentMethod,
			itemsSummary(o.Items),
			amount(o.Total),
			cae,
			number,
		}); err != nil {
			return err
		}
	}

	reg := sum.Register
	closing := ""
	actual := ""
	if reg.ClosingTime != nil {
		closing = reg.ClosingTime.In(exportZone).Format(exportTimeLayout)
	}
	if reg.FinalAmountActual != nil {
		actual = view.FormatMoney(*reg.FinalAmountActual)
	}
	summary := [][]string{
		{},
		{"Resumen"},
		{"Apertura", reg.OpeningTime.In(exportZone).Format(exportTimeLayout)},
		{"Cierre", closing},
		{"Monto inicial", view.FormatMoney(reg.InitialAmount)},
		{"Ventas", view.FormatMoney(sum.Sales)},
		{"Final calculado", view.FormatMoney(sum.Expected)},
		{"Final real", actual},
		{"Diferencia", view.FormatMoney(sum.Difference)},
	}
	if err := out.WriteAll(summary); err != nil {
		return err
	}
	return out.Error()
}

func itemsSummary(items []orders.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return strings.Join(parts, "; ")
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
