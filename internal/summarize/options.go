package summarize

import (
	"fmt"
	"strings"
)

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

type Format string

const (
	FormatParagraph Format = "paragraph"
	FormatBullets   Format = "bullets"
	FormatNumbered  Format = "numbered"
	FormatKeyPoints Format = "key_points"
)

// Options controls the shape of the generated summary.
type Options struct {
	Length Length
	Format Format
	Focus  []string
}

// InvalidOptionError rejects an unrecognized option value, naming the field.
type InvalidOptionError struct {
	Field string
	Value string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid value %q for option %q", e.Value, e.Field)
}

// ParseOptions validates raw option values and applies defaults: medium
// length, bullet format. Focus terms are trimmed and deduplicated.
func ParseOptions(length, format string, focus []string) (Options, error) {
	opts := Options{Length: LengthMedium, Format: FormatBullets}

	length = strings.ToLower(strings.TrimSpace(length))
	if length != "" {
		switch Length(length) {
		case LengthShort, LengthMedium, LengthLong:
			opts.Length = Length(length)
		default:
			return Options{}, &InvalidOptionError{Field: "length", Value: length}
		}
	}

	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" {
		switch Format(format) {
		case FormatParagraph, FormatBullets, FormatNumbered, FormatKeyPoints:
			opts.Format = Format(format)
		default:
			return Options{}, &InvalidOptionError{Field: "format", Value: format}
		}
	}

	seen := make(map[string]struct{}, len(focus))
	for _, term := range focus {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		opts.Focus = append(opts.Focus, term)
	}

	return opts, nil
}
