package guardian

type OutPublicGuardian struct {
	GuardianID string `json:"guardian_id"`
	Name       string `json:"name"`
}
