package webhook

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var esAR = language.MustParse("es-AR")

const confirmedKey = "Tu pedido ha sido confirmado. Tiempo estimado de demora: %d minutos."

func init() {
	_ = message.Set(esAR, confirmedKey, plural.Selectf(1, "%d",
		"one", "Tu pedido ha sido confirmado. Tiempo estimado de demora: %d minuto.",
		"other", "Tu pedido ha sido confirmado. Tiempo estimado de demora: %d minutos.",
	))
}

// NewOrderConfirmed builds the order_confirmed payload with the customer
// facing wait-time message.
func NewOrderConfirmed(orderID string, customer Customer, status string, minutes int) OrderConfirmed {
	return OrderConfirmed{
		Event:             EventOrderConfirmed,
		OrderID:           orderID,
		Customer:          Customer{Name: customer.Name, Phone: customer.Phone},
		Status:            status,
		EstimatedWaitTime: minutes,
		Message:           message.NewPrinter(esAR).Sprintf(confirmedKey, minutes),
	}
}

// NewOrderReceived builds the order_received acknowledgement.
func NewOrderReceived(orderID string, customer Customer, items []Item, total float64, status string) OrderReceived {
	return OrderReceived{
		Event:    EventOrderReceived,
		OrderID:  orderID,
		Customer: customer,
		Items:    items,
		Total:    total,
		Status:   status,
		Message:  ReceivedMessage,
	}
}
