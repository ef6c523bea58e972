package normalize

import "testing"

func TestIdempotent(t *testing.T) {
	inputs := []string{
		"  Hello   world  \n\n\n\nGoodbye.",
		"The café serves ﬁne coffee.",
		"a,b ,c .d",
		"",
		"already clean text.",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestCollapsesWhitespacePreservesParagraphs(t *testing.T) {
	got := Normalize("para one\n\n\n\npara two")
	want := "para one\n\npara two"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestExpandsLigatures(t *testing.T) {
	got := Normalize("ﬁnally")
	if got != "finally" {
		t.Fatalf("got %q", got)
	}
}

func TestPunctuationSpacing(t *testing.T) {
	got := Normalize("a ,b.c")
	if got != "a, b. c" {
		t.Fatalf("got %q", got)
	}
}

func TestTrims(t *testing.T) {
	got := Normalize("   padded   ")
	if got != "padded" {
		t.Fatalf("got %q", got)
	}
}
