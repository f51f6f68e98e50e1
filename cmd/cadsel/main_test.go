package main

import (
	"testing"

	"github.com/draftgrid/cadsel/internal/errors"
)

func TestParseRefArgs(t *testing.T) {
	refs, err := parseRefArgs([]string{"2A", "/plans/site.dwg#2B", "C:\\plans\\a.dwg#3"})
	if err != nil {
		t.Fatalf("parseRefArgs failed: %v", err)
	}
	if refs[0].DocumentPath != "" || refs[0].Handle != "2A" {
		t.Errorf("bare handle = %+v", refs[0])
	}
	if refs[1].DocumentPath != "/plans/site.dwg" || refs[1].Handle != "2B" {
		t.Errorf("path#handle = %+v", refs[1])
	}
	if refs[2].DocumentPath != "C:\\plans\\a.dwg" || refs[2].Handle != "3" {
		t.Errorf("windows path = %+v", refs[2])
	}
}

func TestParseRefArgs_Empty(t *testing.T) {
	if _, err := parseRefArgs(nil); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestCLICommandsMatchApp(t *testing.T) {
	app := newCLIApp(nil, nil, nil)
	registered := make(map[string]bool)
	for _, cmd := range app.Commands {
		registered[cmd.Name] = true
	}
	for name := range cliCommands {
		if name == "help" {
			continue // built into urfave/cli
		}
		if !registered[name] {
			t.Errorf("dispatch table lists %q but the app does not register it", name)
		}
	}
	for name := range registered {
		if !cliCommands[name] {
			t.Errorf("app registers %q but the dispatch table does not list it", name)
		}
	}
}
