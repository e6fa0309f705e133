// Package ui provides colorized terminal output for the ops CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	stepColor    = color.New(color.FgBlue)
)

// center left-pads text to sit in the middle of width. Text wider than width
// is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// Header prints a banner line with the title centered.
func Header(title string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(title, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress line.
func Step(current, total int, text string) {
	stepColor.Printf("[%d/%d] ", current, total)
	fmt.Println(text)
}

// Success prints a green checkmark line.
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints a plain informational line.
func Info(text string) {
	infoColor.Println(text)
}

// Warning prints a yellow warning line.
func Warning(text string) {
	warningColor.Printf("! %s\n", text)
}

// Error prints a red error line.
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText prints text in blue without a prefix.
func BlueText(text string) {
	stepColor.Println(text)
}

// YellowText prints text in yellow without a prefix.
func YellowText(text string) {
	warningColor.Println(text)
}
