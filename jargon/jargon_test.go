package jargon

import "testing"

func TestCorrectSubstitutesCloseMatch(t *testing.T) {
	c := New(Config{Terms: []string{"moexipril"}})

	got := c.Correct("the moxiperil dose")
	if got != "the moexipril dose" {
		t.Errorf("got %q, want %q", got, "the moexipril dose")
	}
}

func TestCorrectLeavesUnrelatedWordsAlone(t *testing.T) {
	c := New(Config{Terms: []string{"moexipril"}})

	in := "the telephone rang twice"
	if got := c.Correct(in); got != in {
		t.Errorf("unrelated text changed: %q", got)
	}
}

func TestCorrectIsDeterministic(t *testing.T) {
	c := New(Config{Terms: []string{"kubernetes", "moexipril", "terraform"}})

	in := "deploy kubernets with teraform and moxiperil"
	first := c.Correct(in)
	for i := 0; i < 10; i++ {
		if got := c.Correct(in); got != first {
			t.Fatalf("run %d produced %q, first run produced %q", i, got, first)
		}
	}
	if first != "deploy kubernetes with terraform and moexipril" {
		t.Errorf("got %q", first)
	}
}

func TestCorrectTieBreaksByListOrder(t *testing.T) {
	// Both terms are one edit from the token, so the scores tie exactly.
	c := New(Config{Terms: []string{"moxb", "moxc"}})
	if got := c.Correct("take moxa now"); got != "take moxb now" {
		t.Errorf("got %q, want first-listed term to win the tie", got)
	}

	// Reversing the list flips the winner.
	c = New(Config{Terms: []string{"moxc", "moxb"}})
	if got := c.Correct("take moxa now"); got != "take moxc now" {
		t.Errorf("got %q, want %q", got, "take moxc now")
	}
}

func TestCorrectPreservesPunctuation(t *testing.T) {
	c := New(Config{Terms: []string{"moexipril"}})

	got := c.Correct("We discussed moxiperil, then adjourned.")
	if got != "We discussed moexipril, then adjourned." {
		t.Errorf("got %q", got)
	}
}

func TestCorrectSkipsShortTokens(t *testing.T) {
	c := New(Config{Terms: []string{"the"}, MinTokenLength: 4})

	in := "to be or not"
	if got := c.Correct(in); got != in {
		t.Errorf("short tokens should be skipped, got %q", got)
	}
}

func TestCorrectNoTermsIsIdentity(t *testing.T) {
	c := New(Config{})
	in := "nothing to do here"
	if got := c.Correct(in); got != in {
		t.Errorf("got %q", got)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"moexipril", "moexipril", 100},
		{"", "", 100},
		{"moxiperil", "moexipril", 88},
		{"abcd", "wxyz", 50},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
