package webhook

import "encoding/json"

// The payload structs below decode Event.Raw, the verbatim
// data.object JSON the Processor Gateway hands the ingress pipeline
// (stripe.Gateway.VerifySignature sets Raw = event.Data.Raw). They carry
// only the fields the handlers need, not a full
// mirror of the processor's object schema.

type subscriptionPayload struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAt           *int64 `json:"cancel_at"`
	CanceledAt         *int64 `json:"canceled_at"`
}

type chargeEventPayload struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
}

type invoiceEventPayload struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
	Charge       string `json:"charge"`
	AmountDue    int64  `json:"amount_due"`
	Currency     string `json:"currency"`
}

type refundEventPayload struct {
	ID          string `json:"id"`
	Charge      string `json:"charge"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount"`
	Reason      string `json:"reason"`
}

type disputeEventPayload struct {
	ID          string `json:"id"`
	Charge      string `json:"charge"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount"`
	Reason      string `json:"reason"`
}

func decode(raw []byte, v interface{}) error {
	return json.Unmarshal(raw, v)
}
