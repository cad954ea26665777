package emuhost_test

import (
	"testing"

	"github.com/e9kdbg/e9kdbg/emuhost"
)

func TestCatalogueDefaultFallsBackToFirstValue(t *testing.T) {
	c := emuhost.NewCatalogue()
	c.Options = append(c.Options, emuhost.Option{
		Key: "scaling",
		Values: []emuhost.OptionValue{
			{Value: "1x"},
			{Value: "2x"},
		},
	})

	if got := c.DefaultValue("scaling"); got != "1x" {
		t.Fatalf("expected fallback to first value, got %q", got)
	}
}

func TestCatalogueDefaultPrefersExplicitDefault(t *testing.T) {
	c := emuhost.NewCatalogue()
	c.Options = append(c.Options, emuhost.Option{
		Key:          "scaling",
		Values:       []emuhost.OptionValue{{Value: "1x"}, {Value: "2x"}},
		DefaultValue: "2x",
	})

	if got := c.DefaultValue("scaling"); got != "2x" {
		t.Fatalf("expected explicit default, got %q", got)
	}
}

func TestCatalogueFindUnknownKey(t *testing.T) {
	c := emuhost.NewCatalogue()
	if _, ok := c.Find("missing"); ok {
		t.Fatal("expected missing key to report not found")
	}
	if got := c.DefaultValue("missing"); got != "" {
		t.Fatalf("expected empty default for unknown key, got %q", got)
	}
}

func TestCatalogueFreeClearsContents(t *testing.T) {
	c := emuhost.NewCatalogue()
	c.Options = append(c.Options, emuhost.Option{Key: "a"})
	c.Categories = append(c.Categories, emuhost.Category{Key: "cat"})

	c.Free()

	if len(c.Options) != 0 || len(c.Categories) != 0 {
		t.Fatal("expected Free to clear both slices")
	}

	var nilCat *emuhost.Catalogue
	nilCat.Free() // must not panic
}

func TestCommandStringNamesKnownCommands(t *testing.T) {
	if got := emuhost.CmdGetVariable.String(); got != "get_variable" {
		t.Fatalf("unexpected name: %q", got)
	}
	if got := emuhost.Command(9999).String(); got != "unknown" {
		t.Fatalf("expected unknown for unrecognised command, got %q", got)
	}
}
