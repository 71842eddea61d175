// Package prompt reads interactive answers from a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/FloraFacts/internal/models"
)

// ErrNoInput is returned when input ends before an answer was given.
var ErrNoInput = errors.New("no input")

// Confirm asks a yes/no question. Anything but "y" or "yes" is a no.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "%s [y/N]: ", question)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

// Avatar prints the avatar grid and reads a choice, either its number or
// the symbol itself. It asks again until the answer is valid.
func Avatar(in io.Reader, out io.Writer) (string, error) {
	const perRow = 8
	for i, a := range models.AvatarOptions {
		fmt.Fprintf(out, "%2d %s  ", i+1, a)
		if (i+1)%perRow == 0 {
			fmt.Fprintln(out)
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Choose an avatar: ")
		if !scanner.Scan() {
			return "", ErrNoInput
		}
		answer := strings.TrimSpace(scanner.Text())
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(models.AvatarOptions) {
			return models.AvatarOptions[n-1], nil
		}
		if models.ValidAvatar(answer) {
			return answer, nil
		}
		fmt.Fprintln(out, "Please enter a number from the list.")
	}
}
