package notify

import (
	"fmt"

	"github.com/vulneye/sc"
)

// Notifier delivers a SecurityCenter alert record to an outside channel.
type Notifier interface {
	Notify(alert sc.Record) error
}

// field reads a string-ish attribute off a raw alert record.
func field(alert sc.Record, key string) string {
	v, ok := alert[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// trigger renders the trigger condition, e.g. "sumip >= 100".
func trigger(alert sc.Record) string {
	name := field(alert, "triggerName")
	if name == "" {
		return ""
	}
	return fmt.Sprintf("%s %s %s",
		name, field(alert, "triggerOperator"), field(alert, "triggerValue"))
}
