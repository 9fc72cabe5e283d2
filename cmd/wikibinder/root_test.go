package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "wikibinder" {
			t.Errorf("expected use 'wikibinder', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions and version", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has log-json flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("log-json") == nil {
			t.Fatal("expected log-json flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		// cobra sorts subcommands by name
		want := []string{"compare", "export", "history", "init", "version"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestGetBoolFlag tests reading persistent flags from a subcommand.
func TestGetBoolFlag(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	if err := root.PersistentFlags().Set("verbose", "true"); err != nil {
		t.Fatal(err)
	}
	export, _, err := root.Find([]string{"export"})
	if err != nil {
		t.Fatal(err)
	}

	if !getBoolFlag(export, "verbose") {
		t.Error("expected verbose from the root's persistent flags")
	}
	if getBoolFlag(export, "log-json") {
		t.Error("expected log-json to default to false")
	}
	if getBoolFlag(export, "no-such-flag") {
		t.Error("expected unknown flags to read as false")
	}
}
