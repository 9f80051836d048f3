package domain

import (
	"net/url"
	"strconv"
)

// UPIPayee is the account manual subscription payments are sent to.
type UPIPayee struct {
	VPA  string `json:"upi_id"`
	Name string `json:"name"`
}

// PaymentLink returns a upi:// link that opens a UPI app with the payee,
// amount and note filled in. It is empty when no VPA is configured.
func (p UPIPayee) PaymentLink(amount int, note string) string {
	if p.VPA == "" {
		return ""
	}
	q := url.Values{}
	q.Set("pa", p.VPA)
	q.Set("pn", p.Name)
	q.Set("am", strconv.Itoa(amount))
	q.Set("tn", note)
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}
