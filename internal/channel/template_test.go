package channel

import "testing"

func TestNamedPlaceholders(t *testing.T) {
	body := "Olá {{customer_name}}, o ticket {{ticket_number}} mudou para {{ticket_status}}. Obrigado, {{customer_name}}!"
	names := NamedPlaceholders(body)
	want := []string{"customer_name", "ticket_number", "ticket_status"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestNamedPlaceholdersIgnoresPositional(t *testing.T) {
	if names := NamedPlaceholders("Ticket {{1}} agora está {{2}}."); names != nil {
		t.Fatalf("positional placeholders parsed as named: %v", names)
	}
}

func TestPositionalPlaceholderCount(t *testing.T) {
	if got := PositionalPlaceholderCount("Ticket {{1}}: {{2}}. Ref {{1}}."); got != 2 {
		t.Fatalf("count = %d, want 2 distinct", got)
	}
	if got := PositionalPlaceholderCount("no placeholders here"); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}
