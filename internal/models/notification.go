package models

// Message is a single plaintext email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationPair holds the two messages produced for every booking:
// the confirmation to the requester and the alert to the operator inbox.
type NotificationPair struct {
	Confirmation Message `json:"confirmation"`
	Alert        Message `json:"alert"`
}

// Messages returns the pair in send order.
func (p NotificationPair) Messages() []Message {
	return []Message{p.Confirmation, p.Alert}
}
