package auth

type OutSignin struct {
	AccessToken      string `json:"access_token"`
	GuardianID       string `json:"guardian_id"`
	ProfileCompleted bool   `json:"profile_completed"`
}
