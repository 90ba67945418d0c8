package idgen

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		prefix   string
		last     string
		expected string
	}{
		{BlindPrefix, "", "BLIND001"},
		{BlindPrefix, "BLIND001", "BLIND002"},
		{BlindPrefix, "BLIND009", "BLIND010"},
		{BlindPrefix, "BLIND099", "BLIND100"},
		{BlindPrefix, "BLIND999", "BLIND1000"},
		{BlindPrefix, "garbage", "BLIND001"},
		{GuardianPrefix, "", "Guardian001"},
		{GuardianPrefix, "Guardian001", "Guardian002"},
		{GuardianPrefix, "Guardian042", "Guardian043"},
	}

	for _, test := range tests {
		if got := Next(test.prefix, test.last); got != test.expected {
			t.Errorf("Next(%q, %q) = %q, expected %q", test.prefix, test.last, got, test.expected)
		}
	}
}
