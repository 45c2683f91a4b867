package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"github.com/vulneye/sc"
)

type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

func (s *SlackNotifier) Notify(alert sc.Record) error {
	attachment := slack.Attachment{
		Color: "#ff0000",
		Title: fmt.Sprintf("SecurityCenter Alert: %s", field(alert, "name")),
		Text:  field(alert, "description"),
		Fields: []slack.AttachmentField{
			{
				Title: "Alert ID",
				Value: field(alert, "id"),
				Short: true,
			},
			{
				Title: "Trigger",
				Value: trigger(alert),
				Short: true,
			},
			{
				Title: "Last Triggered",
				Value: field(alert, "lastTriggered"),
				Short: true,
			},
			{
				Title: "Status",
				Value: field(alert, "status"),
				Short: true,
			},
		},
		Footer: "vulneye alert watch",
		Ts:     json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}

	_, _, err := s.client.PostMessage(
		s.channel,
		slack.MsgOptionAttachments(attachment),
	)
	return err
}
