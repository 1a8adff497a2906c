package slug

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"simple title", "Acme Films", "acme-films"},
		{"uppercase and punctuation", "  The GREAT Gatsby!! ", "the-great-gatsby"},
		{"diacritics folded", "Café Société", "cafe-societe"},
		{"runs collapse", "a---b___c", "a-b-c"},
		{"leading trailing stripped", "--hello--", "hello"},
		{"digits kept", "Unit 42", "unit-42"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"Acme Films", "Café Société", "a---b", "Unit 42!", "ALL CAPS"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestIsReserved(t *testing.T) {
	for _, s := range []string{"login", "admin", "api", "dashboard"} {
		if !IsReserved(s) {
			t.Fatalf("expected %q to be reserved", s)
		}
	}
	if IsReserved("acme-films") {
		t.Fatal("acme-films should not be reserved")
	}
}
