package agenttype

import "testing"

func TestRenderFileBodyExecutesSprigHelpers(t *testing.T) {
	out, err := RenderFileBody(`name: {{ "world" | upper }}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "name: WORLD" {
		t.Fatalf("expected sprig upper to apply, got %q", out)
	}
}

func TestRenderFileBodyPlainContentRoundTrips(t *testing.T) {
	const body = "plain: true\nno_template: here\n"
	out, err := RenderFileBody(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != body {
		t.Fatalf("expected plain content unchanged, got %q", out)
	}
}

func TestRenderFileBodyRemovesEnvFuncs(t *testing.T) {
	_, err := RenderFileBody(`{{ env "HOME" }}`)
	if err == nil {
		t.Fatal("expected an error: \"env\" must not be callable from a file-kind variable body")
	}
}

func TestCoerceValueFileKindRendersTemplate(t *testing.T) {
	val, err := CoerceValue(KindFile, `hello {{ "there" | upper }}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.Str != "hello THERE" {
		t.Fatalf("expected rendered file contents, got %q", val.Str)
	}
}

func TestCoerceValueMapStringFileRendersEachEntry(t *testing.T) {
	val, err := CoerceValue(KindMapStringFile, map[string]interface{}{
		"a.yaml": `{{ "x" | upper }}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.MapFile["a.yaml"] != "X" {
		t.Fatalf("expected rendered map entry, got %+v", val.MapFile)
	}
}
