package ref

import (
	"testing"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Ref
	}{
		{"genesis", Ref{Book: "genesis"}},
		{"genesis 6", Ref{Book: "genesis", Chapter: 6}},
		{"genesis 6:9", Ref{Book: "genesis", Chapter: 6, Verse: 9}},
		{"Gen.6.9", Ref{Book: "genesis", Chapter: 6, Verse: 9}},
		{"  exodus   12 : 2 ", Ref{Book: "exodus", Chapter: 12, Verse: 2}},
		{"bamidbar 22:2", Ref{Book: "numbers", Chapter: 22, Verse: 2}},
		{"genesis/noach 6:9", Ref{Book: "genesis", Parasha: "noach", Chapter: 6, Verse: 9}},
		{"Deut/Vaetchanan 3", Ref{Book: "deuteronomy", Parasha: "vaetchanan", Chapter: 3}},
		{"leviticus/acharei_mot 16:1", Ref{Book: "leviticus", Parasha: "acharei_mot", Chapter: 16, Verse: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if *got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "6:9", "matthew 5:3", "genesis 6:", "genesis :9", "genesis 6:9:1"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", input)
			}
			var pe *errors.ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Parse(%q) error = %T, want *ParseError", input, err)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		ref  Ref
		want string
	}{
		{Ref{Book: "genesis"}, "genesis"},
		{Ref{Book: "genesis", Chapter: 6}, "genesis 6"},
		{Ref{Book: "genesis", Chapter: 6, Verse: 9}, "genesis 6:9"},
		{Ref{Book: "genesis", Parasha: "noach", Chapter: 6, Verse: 9}, "genesis/noach 6:9"},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		back, err := Parse(tt.want)
		if err != nil || *back != tt.ref {
			t.Errorf("Parse(String()) = %+v, %v; want %+v", back, err, tt.ref)
		}
	}
}

func TestCanonicalBook(t *testing.T) {
	if id, ok := CanonicalBook("DEVARIM"); !ok || id != "deuteronomy" {
		t.Errorf("CanonicalBook(DEVARIM) = %q, %v", id, ok)
	}
	if _, ok := CanonicalBook("psalms"); ok {
		t.Error("psalms is not a Torah book")
	}
	if len(Books()) != 5 {
		t.Errorf("Books() = %v", Books())
	}
}

func TestHasVerse(t *testing.T) {
	if (&Ref{Book: "genesis", Chapter: 1}).HasVerse() {
		t.Error("chapter reference reported a verse")
	}
	if !(&Ref{Book: "genesis", Chapter: 1, Verse: 1}).HasVerse() {
		t.Error("verse reference reported no verse")
	}
}
