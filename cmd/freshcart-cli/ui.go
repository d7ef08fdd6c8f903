// Package main provides UI utilities for the FreshCart CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// UI provides user-friendly output utilities. In JSON mode all decorated
// output is suppressed and results are printed as JSON documents.
type UI struct {
	noColor  bool
	jsonMode bool
}

// NewUI creates a new UI instance.
func NewUI(jsonMode, noColor bool) *UI {
	return &UI{noColor: noColor, jsonMode: jsonMode}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.print(color.FgGreen, "✓", format, args...)
}

// Info prints an informational message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.print(color.FgCyan, "•", format, args...)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.print(color.FgYellow, "!", format, args...)
}

// Error prints an error message to stderr.
func (ui *UI) Error(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
	} else {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", msg)
	}
}

// JSON prints a value as indented JSON. Used for --json output.
func (ui *UI) JSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// Price formats a price pair, striking through the base price when a
// discount applies.
func (ui *UI) Price(basePrice, finalPrice float64) string {
	if finalPrice >= basePrice {
		return fmt.Sprintf("$%.2f", basePrice)
	}
	if ui.noColor {
		return fmt.Sprintf("$%.2f (was $%.2f)", finalPrice, basePrice)
	}
	return fmt.Sprintf("%s %s",
		color.New(color.FgGreen, color.Bold).Sprintf("$%.2f", finalPrice),
		color.New(color.FgHiBlack, color.CrossedOut).Sprintf("$%.2f", basePrice),
	)
}

func (ui *UI) print(c color.Attribute, mark, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Printf("%s %s\n", mark, msg)
	} else {
		color.New(c).Printf("%s %s\n", mark, msg)
	}
}
