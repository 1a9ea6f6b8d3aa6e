package domain

import "encoding/json"

// Invoice rows keep their line items as serialized JSON text; the server
// never interprets the items' internal structure.
type Invoice struct {
	ID              string  `json:"id" db:"id"`
	CustomerName    string  `json:"customerName" db:"customer_name"`
	CustomerPhone   string  `json:"customerPhone" db:"customer_phone"`
	CustomerAddress string  `json:"customerAddress" db:"customer_address"`
	Date            string  `json:"date" db:"date"`
	Items           string  `json:"-" db:"items"`
	Subtotal        float64 `json:"subtotal" db:"subtotal"`
	Tax             float64 `json:"tax" db:"tax"`
	Total           float64 `json:"total" db:"total"`
	CreatedAt       string  `json:"created_at" db:"created_at"`
}

// InvoiceView is the API shape of an invoice, with items deserialized back
// into whatever structure the client originally supplied.
type InvoiceView struct {
	Invoice
	Items json.RawMessage `json:"items"`
}
