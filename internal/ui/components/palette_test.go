package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMatchHints(t *testing.T) {
	t.Parallel()
	if got := matchHints(""); len(got) != len(paletteHints) {
		t.Fatalf("expected every hint for empty input, got %v", got)
	}
	if got := matchHints("d"); len(got) != 2 || got[0] != "days <n>" || got[1] != "delete" {
		t.Fatalf("unexpected prefix matches %v", got)
	}
	if got := matchHints("rate 4"); len(got) != 1 || got[0] != "rate <1-5>" {
		t.Fatalf("unexpected argument match %v", got)
	}
	if got := matchHints("bogus 1"); got != nil {
		t.Fatalf("expected no hints, got %v", got)
	}
}

func submit(p Palette, value string) Palette {
	p.Open()
	p.input.SetValue(value)
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return p
}

func TestPaletteHistory(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p = submit(p, "days 30")
	p = submit(p, "days 30")
	p = submit(p, "sync")
	p = submit(p, "  ")

	history := p.History()
	if len(history) != 2 || history[0] != "days 30" || history[1] != "sync" {
		t.Fatalf("unexpected history %v", history)
	}

	p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if p.input.Value() != "sync" {
		t.Fatalf("expected latest entry, got %q", p.input.Value())
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if p.input.Value() != "days 30" {
		t.Fatalf("expected oldest entry, got %q", p.input.Value())
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	if p.input.Value() != "" {
		t.Fatalf("expected fresh line after history, got %q", p.input.Value())
	}
}

func TestPaletteSubmitClosesAndEmits(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.Open()
	p.input.SetValue(" export yaml ")
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("palette should close on enter")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "export yaml" {
		t.Fatalf("unexpected submit msg %#v", cmd())
	}
}
