package notify

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/vulneye/sc"
)

type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

func NewEmailNotifier(host string, port int, from, password string, to []string) *EmailNotifier {
	return &EmailNotifier{
		dialer: gomail.NewDialer(host, port, from, password),
		from:   from,
		to:     to,
	}
}

func (e *EmailNotifier) Notify(alert sc.Record) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to...)
	m.SetHeader("Subject", "SecurityCenter Alert: "+field(alert, "name"))

	body := fmt.Sprintf(`
		Alert: %s (id %s)
		Description: %s
		Trigger: %s
		Status: %s
		Seen: %s
	`, field(alert, "name"), field(alert, "id"),
		field(alert, "description"), trigger(alert),
		field(alert, "status"), time.Now().Format(time.RFC3339))

	m.SetBody("text/plain", body)

	return e.dialer.DialAndSend(m)
}
