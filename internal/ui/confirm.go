package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm prompts the user with a yes/no question on stdin. Returns true for yes.
func Confirm(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, StyleWarning.Render(prompt))
}

// ConfirmDanger is like Confirm but styled with the error color, for admin
// actions such as pause.
func ConfirmDanger(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, StyleError.Render("⚠ "+prompt))
}

// ConfirmFrom asks prompt on out and reads the answer from in.
func ConfirmFrom(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line := readLine(in)
	line = strings.ToLower(line)
	return line == "y" || line == "yes"
}

// PromptInput asks for a free-text value on stdin.
func PromptInput(prompt string) string {
	return PromptFrom(os.Stdin, os.Stdout, prompt)
}

// PromptFrom asks prompt on out and returns the trimmed line read from in.
func PromptFrom(in io.Reader, out io.Writer, prompt string) string {
	fmt.Fprintf(out, "%s ", StyleInfo.Render(prompt))
	return readLine(in)
}

func readLine(in io.Reader) string {
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
