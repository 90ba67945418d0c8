// Package notify pushes decision notifications to the blind user's device
// through Expo.
package notify

import (
	"fmt"

	"github.com/blindlink/guardian-connect-backend/db/model"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

var client = expo.NewPushClient(nil)

// Decision tells the blind user how the guardian settled their request.
// Users without a registered push token are skipped silently.
func Decision(u *model.BlindUser, guardianID string, status model.ConnectionStatus) error {
	if u.ExpoPushToken == "" {
		return nil
	}
	token, err := expo.NewExponentPushToken(u.ExpoPushToken)
	if err != nil {
		return err
	}
	var body string
	switch status {
	case model.StatusAccepted:
		body = fmt.Sprintf("Guardian %s accepted your connection request", guardianID)
	case model.StatusRejected:
		body = fmt.Sprintf("Guardian %s declined your connection request", guardianID)
	default:
		return nil
	}
	resp, err := client.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Title:    "Connection update",
		Body:     body,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	})
	if err != nil {
		return err
	}
	return resp.ValidateResponse()
}
