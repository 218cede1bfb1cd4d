package summarize

import (
	"errors"
	"testing"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := ParseOptions("", "", nil)
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if opts.Length != LengthMedium {
		t.Fatalf("expected default length medium, got %q", opts.Length)
	}
	if opts.Format != FormatBullets {
		t.Fatalf("expected default format bullets, got %q", opts.Format)
	}
}

func TestParseOptionsRejectsUnknownLength(t *testing.T) {
	_, err := ParseOptions("gigantic", "", nil)
	var optErr *InvalidOptionError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected InvalidOptionError, got %v", err)
	}
	if optErr.Field != "length" {
		t.Fatalf("expected offending field %q, got %q", "length", optErr.Field)
	}
	if optErr.Value != "gigantic" {
		t.Fatalf("expected offending value on error, got %q", optErr.Value)
	}
}

func TestParseOptionsRejectsUnknownFormat(t *testing.T) {
	_, err := ParseOptions("short", "haiku", nil)
	var optErr *InvalidOptionError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected InvalidOptionError, got %v", err)
	}
	if optErr.Field != "format" {
		t.Fatalf("expected offending field %q, got %q", "format", optErr.Field)
	}
}

func TestParseOptionsNormalizesCase(t *testing.T) {
	opts, err := ParseOptions("LONG", "Key_Points", nil)
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if opts.Length != LengthLong || opts.Format != FormatKeyPoints {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestParseOptionsDeduplicatesFocus(t *testing.T) {
	opts, err := ParseOptions("", "", []string{"pricing", " Pricing ", "", "roadmap"})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if len(opts.Focus) != 2 {
		t.Fatalf("expected 2 focus terms, got %v", opts.Focus)
	}
	if opts.Focus[0] != "pricing" || opts.Focus[1] != "roadmap" {
		t.Fatalf("unexpected focus terms: %v", opts.Focus)
	}
}
