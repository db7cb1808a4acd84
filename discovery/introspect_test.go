package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIntrospect_ParameterOrder(t *testing.T) {
	svc := Static{Contract: []Method{{
		Name: "Create",
		Params: []Param{
			{Name: "zeta"},
			{Name: "alpha"},
			{Name: "mid"},
		},
	}}}

	got := Introspect(svc)
	if len(got) != 1 {
		t.Fatalf("expected 1 method, got %d", len(got))
	}
	var names []string
	for _, p := range got[0].Parameters {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid"}, names); diff != "" {
		t.Errorf("parameter order mismatch (-want +got):\n%s", diff)
	}
}

func TestIntrospect_ReservedPrefixExcluded(t *testing.T) {
	svc := Static{Contract: []Method{
		{Name: "_internal"},
		{Name: "Public"},
		{Name: "__alsoInternal"},
	}}

	got := Introspect(svc)
	if len(got) != 1 || got[0].Name != "Public" {
		t.Errorf("expected only Public, got %+v", got)
	}

	desc := describe("Svc", svc)
	if _, ok := desc.Methods["_internal"]; ok {
		t.Error("reserved method appeared in service descriptor")
	}
}

func TestIntrospect_TypePriority(t *testing.T) {
	svc := Static{Contract: []Method{{
		Name: "Update",
		Params: []Param{
			{Name: "user", Type: "*User"},
			{Name: "name"},
			{Name: "note"},
		},
		Doc: "// Update changes a user.\n" +
			"// @param Person $user\n" +
			"// @param string $name\n" +
			"// @return bool",
	}}}

	want := []MethodDescriptor{{
		Name: "Update",
		Parameters: []ParameterDescriptor{
			{Name: "user", Type: "*User"},
			{Name: "name", Type: "string"},
			{Name: "note", Type: ""},
		},
		Doc: "// Update changes a user.\n" +
			"// @param Person $user\n" +
			"// @param string $name\n" +
			"// @return bool",
		ReturnType: "bool",
	}}
	if diff := cmp.Diff(want, Introspect(svc)); diff != "" {
		t.Errorf("Introspect mismatch (-want +got):\n%s", diff)
	}
}

func TestIntrospect_NoDocComment(t *testing.T) {
	svc := Static{Contract: []Method{{Name: "Ping"}}}

	got := Introspect(svc)
	want := []MethodDescriptor{{
		Name:       "Ping",
		Parameters: []ParameterDescriptor{},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Introspect mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe_DuplicateMethodLastWins(t *testing.T) {
	svc := Static{
		Description: "// Svc does things.",
		Contract: []Method{
			{Name: "Get", Doc: "// @return int"},
			{Name: "Get", Doc: "// @return string"},
		},
	}

	desc := describe("Svc", svc)
	if len(desc.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(desc.Methods))
	}
	if got := desc.Methods["Get"].ReturnType; got != "string" {
		t.Errorf("expected later method to win, got return type %q", got)
	}
	if desc.Doc != "// Svc does things." {
		t.Errorf("unexpected service doc %q", desc.Doc)
	}
	if desc.Name != "Svc" {
		t.Errorf("unexpected service name %q", desc.Name)
	}
}
