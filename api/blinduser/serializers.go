package blinduser

import "github.com/blindlink/guardian-connect-backend/db/model"

type InSignup struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	ExpoPushToken string `json:"expo_push_token"`
}

type InConnect struct {
	GuardianID string `json:"guardian_id"`
}

type OutConnect struct {
	Status       model.ConnectionStatus `json:"status"`
	ConnectionID uint                   `json:"connection_id"`
}
