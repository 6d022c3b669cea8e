package ipranges

import (
	"encoding/json"

	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// Notification is the AmazonIpSpaceChanged SNS message AWS sends every time
// the IP ranges document changes.
type Notification struct {
	CreateTime string `json:"create-time"`
	SyncToken  string `json:"synctoken"`
	MD5        string `json:"md5"`
	URL        string `json:"url"`
}

type snsEvent struct {
	Records []struct {
		Sns struct {
			Message string `json:"Message"`
		} `json:"Sns"`
	} `json:"Records"`
}

// ParseNotification accepts either the bare SNS message or the SNS event
// envelope delivered to subscribers, and returns the first message.
func ParseNotification(raw []byte) (Notification, error) {
	var event snsEvent
	err := json.Unmarshal(raw, &event)
	if err != nil {
		return Notification{}, microerror.Maskf(errors.NotificationParseError, "%s", err)
	}

	message := raw
	if len(event.Records) > 0 {
		message = []byte(event.Records[0].Sns.Message)
	}

	var notification Notification
	err = json.Unmarshal(message, &notification)
	if err != nil {
		return Notification{}, microerror.Maskf(errors.NotificationParseError, "%s", err)
	}
	if notification.URL == "" {
		return Notification{}, microerror.Maskf(errors.NotificationParseError, "notification has no url")
	}

	return notification, nil
}
