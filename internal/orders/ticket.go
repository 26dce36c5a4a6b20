package orders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/guruweb/resto/internal/view"
)

const ticketWidth = 80.0

// ParseTicketKind defaults to the customer ticket.
func ParseTicketKind(raw string) TicketKind {
	if TicketKind(strings.ToLower(strings.TrimSpace(raw))) == TicketKitchen {
		return TicketKitchen
	}
	return TicketCustomer
}

// Ticket renders an 80 mm receipt for the order. The kitchen comanda lists
// items and notes without prices.
func (s *Service) Ticket(ctx context.Context, businessID, id string, kind TicketKind) (string, []byte, error) {
	order, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return "", nil, err
	}
	title := ""
	if b, err := s.businesses.Get(ctx, businessID); err == nil {
		title = b.Name
	}
	data, err := renderTicket(title, order, kind)
	if err != nil {
		return "", nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return fmt.Sprintf("%s-%s.pdf", kind, shortID(order.ID)), data, nil
}

func renderTicket(title string, o Order, kind TicketKind) ([]byte, error) {
	height := 100.0 + 12*float64(len(o.Items))
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: ticketWidth, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w := ticketWidth - 8

	pdf.SetFont("Arial", "B", 12)
	if kind == TicketKitchen {
		pdf.CellFormat(w, 6, tr("COMANDA"), "", 1, "C", false, 0, "")
	} else if title != "" {
		pdf.CellFormat(w, 6, tr(title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(w, 5, tr("Pedido #"+shortID(o.ID)), "", 1, "C", false, 0, "")
	pdf.CellFormat(w, 5, o.CreatedAt.In(localZone).Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	if o.CustomerName != "" {
		pdf.MultiCell(w, 4, tr("Cliente: "+o.CustomerName), "", "L", false)
	}
	if o.CustomerPhone != "" {
		pdf.MultiCell(w, 4, tr("Tel: "+o.CustomerPhone), "", "L", false)
	}
	if o.CustomerAddress != "" {
		pdf.MultiCell(w, 4, tr("Dirección: "+o.CustomerAddress), "", "L", false)
	}
	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), ticketWidth-4, pdf.GetY())
	pdf.Ln(2)

	for _, it := range o.Items {
		line := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if kind == TicketKitchen {
			pdf.SetFont("Arial", "B", 11)
			pdf.MultiCell(w, 5, tr(line), "", "L", false)
		} else {
			pdf.SetFont("Arial", "", 9)
			pdf.CellFormat(w-22, 5, tr(line), "", 0, "L", false, 0, "")
			pdf.CellFormat(22, 5, tr(view.FormatMoney(it.Subtotal())), "", 1, "R", false, 0, "")
		}
		if it.Notes != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.MultiCell(w, 4, tr("  > "+it.Notes), "", "L", false)
		}
	}

	if kind == TicketCustomer {
		pdf.Ln(1)
		pdf.Line(4, pdf.GetY(), ticketWidth-4, pdf.GetY())
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(w-30, 6, "TOTAL", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(view.FormatMoney(o.Total)), "", 1, "R", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(w, 4, tr("Pago: "+paymentLabel(o.PaymentMethod)), "", 1, "L", false, 0, "")
		if o.Invoiced() {
			inv := o.Invoice
			pdf.Ln(2)
			pdf.CellFormat(w, 4, fmt.Sprintf("Factura C %05d-%08d", inv.PointOfSale, inv.Number), "", 1, "L", false, 0, "")
			pdf.CellFormat(w, 4, "CAE: "+inv.CAE, "", 1, "L", false, 0, "")
			if !inv.CAEExpiration.IsZero() {
				pdf.CellFormat(w, 4, "Vto. CAE: "+inv.CAEExpiration.Format("02/01/2006"), "", 1, "L", false, 0, "")
			}
		}
	} else if o.EstimatedWaitTime != nil {
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(w, 5, fmt.Sprintf("Demora estimada: %d min", *o.EstimatedWaitTime), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paymentLabel(method string) string {
	switch method {
	case PaymentCash:
		return "Efectivo"
	case PaymentTransfer:
		return "Transferencia"
	case PaymentCard:
		return "Tarjeta"
	}
	return method
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
