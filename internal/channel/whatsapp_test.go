package channel

import "testing"

func TestBuildTemplateComponentsNamedWins(t *testing.T) {
	components := BuildTemplateComponents(
		map[string]string{"ticket_number": "42"},
		[]string{"should", "be", "ignored"},
		nil,
	)
	if len(components) != 1 {
		t.Fatalf("components = %d, want 1", len(components))
	}
	body := components[0]
	if body.Type != "body" {
		t.Fatalf("component type = %q", body.Type)
	}
	if len(body.Parameters) != 1 {
		t.Fatalf("parameters = %d, want 1 named", len(body.Parameters))
	}
	p := body.Parameters[0]
	if p.ParameterName != "ticket_number" || p.Text != "42" {
		t.Fatalf("unexpected parameter: %+v", p)
	}
}

func TestBuildTemplateComponentsPositional(t *testing.T) {
	components := BuildTemplateComponents(nil, []string{"42", "Resolved"}, nil)
	if len(components) != 1 {
		t.Fatalf("components = %d, want 1", len(components))
	}
	params := components[0].Parameters
	if len(params) != 2 {
		t.Fatalf("parameters = %d, want 2", len(params))
	}
	if params[0].ParameterName != "" {
		t.Fatalf("positional parameter carries a name: %+v", params[0])
	}
	if params[0].Text != "42" || params[1].Text != "Resolved" {
		t.Fatalf("parameter order wrong: %+v", params)
	}
}

func TestBuildTemplateComponentsButtons(t *testing.T) {
	components := BuildTemplateComponents(nil, nil, []string{"tk-1", "tk-1"})
	if len(components) != 2 {
		t.Fatalf("components = %d, want 2 button components", len(components))
	}
	for i, c := range components {
		if c.Type != "button" || c.SubType != "url" {
			t.Fatalf("component %d not a url button: %+v", i, c)
		}
		if c.Index == nil || *c.Index != i {
			t.Fatalf("component %d index = %v", i, c.Index)
		}
		if len(c.Parameters) != 1 || c.Parameters[0].Text != "tk-1" {
			t.Fatalf("component %d parameters = %+v", i, c.Parameters)
		}
	}
}

func TestBuildTemplateComponentsEmpty(t *testing.T) {
	if components := BuildTemplateComponents(nil, nil, nil); components != nil {
		t.Fatalf("expected no components, got %+v", components)
	}
}

func TestIsTranslationMissing(t *testing.T) {
	if !isTranslationMissing("template name (ticket_resolvido) does not exist in the translation (pt_BR)") {
		t.Fatal("translation-missing error not detected")
	}
	if isTranslationMissing("(#131030) Recipient phone number not in allowed list") {
		t.Fatal("unrelated error treated as translation missing")
	}
	if isTranslationMissing("") {
		t.Fatal("empty error treated as translation missing")
	}
}
