//go:build !test

package utils

import "github.com/sqweek/dialog"

// AskForROM shows a native file-open dialog filtered to the program
// image formats the front-end can load.
func AskForROM() (string, error) {
	return dialog.File().
		Filter("Game Boy ROMs (*.gb, *.gbc, *.zip, *.gz, *.7z)", "gb", "gbc", "zip", "gz", "7z").
		Title("Open ROM").
		Load()
}
