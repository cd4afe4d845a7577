package cli

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Tracked",
		Headers: []string{"Name", "Monthly"},
		Rows: [][]string{
			{"Netflix", "$15.99"},
			{"---"},
			{"Spotify", "$9.99"},
		},
	})

	for _, want := range []string{"Tracked", "Name", "Monthly", "Netflix", "$15.99", "Spotify"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderTable output missing %q", want)
		}
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Errorf("empty table rendered %q", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	if out := RenderSparkline(nil); out != "" {
		t.Errorf("empty series rendered %q", out)
	}

	out := RenderSparkline([]float64{0, 50, 100})
	runes := []rune(out)
	if len(runes) != 3 {
		t.Fatalf("sparkline length = %d, want 3", len(runes))
	}
	if runes[0] != '▁' || runes[2] != '█' {
		t.Errorf("sparkline endpoints = %q", out)
	}
}

func TestWarn(t *testing.T) {
	if !strings.Contains(Warn("3 removal notice(s)"), "3 removal notice(s)") {
		t.Error("Warn dropped its message")
	}
}
