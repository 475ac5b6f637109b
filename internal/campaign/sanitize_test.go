package campaign

import "testing"

func TestCleanPlaceholder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Jean Dupont", "Jean Dupont"},
		{"  A\n\tB  ", "A B"},
		{"ligne1\nligne2\r\nligne3", "ligne1 ligne2 ligne3"},
		{"\t\t", ""},
		{"120,00   MAD", "120,00 MAD"},
	}
	for _, tt := range tests {
		if got := CleanPlaceholder(tt.in); got != tt.want {
			t.Errorf("CleanPlaceholder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRowPlaceholdersOrder(t *testing.T) {
	row := Row{
		Recipient:        "212600000001",
		FullName:         "Jean  Dupont",
		ConsultationDate: "2025-11-20",
		Fees:             "350\nMAD",
		Notes:            "apporter le dossier",
	}
	got := row.Placeholders()
	want := []string{"Jean Dupont", "2025-11-20", "350 MAD", "apporter le dossier"}
	if len(got) != len(want) {
		t.Fatalf("placeholders = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("placeholder[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
