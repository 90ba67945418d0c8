package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPendingViewRedactsContactFields(t *testing.T) {
	conn := Connection{
		ID:         1,
		BlindID:    "BLIND001",
		GuardianID: "Guardian001",
		Status:     StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		BlindUser: &BlindUser{
			BlindID:       "BLIND001",
			Name:          "Asha",
			Age:           34,
			Gender:        "female",
			PhoneNumber:   "9876543210",
			Email:         "asha@example.com",
			Address:       "12 Lake Road",
			ExpoPushToken: "ExponentPushToken[xxx]",
		},
	}

	view := conn.PendingView()
	if view.BlindUser == nil {
		t.Fatal("expected the public blind user on the view")
	}
	if view.BlindUser.Name != "Asha" || view.BlindUser.Age != 34 || view.BlindUser.Gender != "female" {
		t.Errorf("public fields lost in projection: %+v", view.BlindUser)
	}

	b, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, leak := range []string{"phone_number", "9876543210", "asha@example.com", "12 Lake Road", "ExponentPushToken"} {
		if strings.Contains(string(b), leak) {
			t.Errorf("pending view leaked %q: %s", leak, b)
		}
	}
}

func TestPendingViewWithoutPreload(t *testing.T) {
	conn := Connection{ID: 2, BlindID: "BLIND002", GuardianID: "Guardian001", Status: StatusPending}
	view := conn.PendingView()
	if view.BlindUser != nil {
		t.Errorf("expected nil blind user when nothing was preloaded")
	}
	b, _ := json.Marshal(view)
	if strings.Contains(string(b), "blind_user") {
		t.Errorf("empty blind user must be omitted: %s", b)
	}
}
