package cache

import "testing"

func TestKeys(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		Key("a", "", "b"):          "a:b",
		InterviewKey("iv-1"):       "interview:iv-1",
		FeedbackKey("iv-1", "u-1"): "feedback:iv-1:u-1",
		HandoffKey("s-1"):          "session:s-1:handoff",
		Key():                      "",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
