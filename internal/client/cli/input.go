package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"wallet/internal/errors"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// readLine prints prompt and reads one trimmed line. A final line without
// a newline is accepted.
func readLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", errors.WithStack(err)
	}

	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", errors.WithStack(err)
	}

	return strings.TrimSpace(line), nil
}

// readSecret prints prompt and reads a password from the terminal without echo.
func readSecret(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", errors.WithStack(err)
	}

	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}

	return string(pw), nil
}
