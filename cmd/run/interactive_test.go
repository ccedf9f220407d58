package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/internal/wasmtest"
	"github.com/wippyai/wasm-loader/loader"
)

func newTestModel(t *testing.T, binary []byte) *interactiveModel {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.wasm")
	if err := os.WriteFile(path, binary, 0o644); err != nil {
		t.Fatal(err)
	}
	eng, err := engine.NewWazeroEngine(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Close(ctx) })

	m := newInteractiveModel(ctx, loader.New(eng, loader.WithPath(path)))
	t.Cleanup(m.close)
	m.Update(m.Init()())
	return m
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

// press sends k and feeds any resulting command message back to the model.
func press(m *interactiveModel, k tea.KeyType) {
	_, cmd := m.Update(key(k))
	if cmd == nil {
		return
	}
	if msg, ok := cmd().(callResultMsg); ok {
		m.Update(msg)
	}
}

func TestInteractive_CallsFunctionWithArgs(t *testing.T) {
	m := newTestModel(t, wasmtest.MainWithParams())
	if m.state != stateSelectExport || len(m.exports) != 1 {
		t.Fatalf("state = %v, exports = %d", m.state, len(m.exports))
	}

	press(m, tea.KeyEnter)
	if m.state != stateInputArgs || len(m.inputs) != 2 {
		t.Fatalf("state = %v, inputs = %d", m.state, len(m.inputs))
	}
	m.inputs[0].SetValue("3")
	m.inputs[1].SetValue("4")

	msg := m.call()
	m.Update(msg)
	if m.state != stateShowResult || m.err != nil || m.result != "12" {
		t.Errorf("state = %v, result = %q, err = %v", m.state, m.result, m.err)
	}
	if !strings.Contains(m.View(), "12") {
		t.Errorf("view = %q", m.View())
	}
}

func TestInteractive_BadArgument(t *testing.T) {
	m := newTestModel(t, wasmtest.MainWithParams())
	press(m, tea.KeyEnter)
	m.inputs[0].SetValue("x")

	m.Update(m.call())
	if m.err == nil || !strings.Contains(m.err.Error(), "arg0") {
		t.Errorf("err = %v, want arg0 parse error", m.err)
	}
}

func TestInteractive_InspectsNonFunctions(t *testing.T) {
	m := newTestModel(t, wasmtest.MixedExports())

	press(m, tea.KeyEnter) // memory
	if !strings.Contains(m.result, "1 pages") {
		t.Errorf("memory result = %q", m.result)
	}

	press(m, tea.KeyEsc)
	press(m, tea.KeyDown)
	press(m, tea.KeyEnter) // counter
	if m.result != "mut i32 = 7" {
		t.Errorf("global result = %q", m.result)
	}
}

func TestInteractive_LoadError(t *testing.T) {
	m := newTestModel(t, wasmtest.BadMagic())
	if m.err == nil || m.session != nil {
		t.Fatalf("err = %v, session = %v", m.err, m.session)
	}
	if !strings.Contains(m.View(), "compilation") {
		t.Errorf("view = %q", m.View())
	}
}
