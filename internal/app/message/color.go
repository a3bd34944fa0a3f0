/*
Package message defines the wire envelope exchanged between clients and the server.

This file defines the display color palette shared by clients and the server.
Colors travel on the wire by name; clients translate names to ANSI escape codes
when rendering.
*/
package message

// ANSI escape codes used by the terminal renderer.
const (
	ColorReset = "\x1b[0m"
)

// DefaultColorName is the color assigned to new users and new groups.
const DefaultColorName = "green"

// colorCodes maps wire color names to their ANSI escape codes.
var colorCodes = map[string]string{
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// ColorNames lists the valid wire color names in palette order.
var ColorNames = []string{"red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// ValidColorName reports whether name is part of the shared palette.
func ValidColorName(name string) bool {
	_, ok := colorCodes[name]
	return ok
}

// ColorCode returns the ANSI escape code for a wire color name,
// falling back to the default color for unknown names.
func ColorCode(name string) string {
	if code, ok := colorCodes[name]; ok {
		return code
	}
	return colorCodes[DefaultColorName]
}
