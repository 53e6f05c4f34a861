package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const minPasswordLength = 6

var (
	errMismatch = errors.New("passwords do not match")
	errTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// readFunc reads one password from the terminal without echo.
type readFunc func() ([]byte, error)

func main() {
	if len(os.Args) > 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fmt.Fprintln(os.Stderr, "Error: hashpw must be run from a terminal")
		os.Exit(1)
	}

	read := func() ([]byte, error) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return password, err
	}

	hash, err := prompt(os.Stderr, read, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
	fmt.Fprintln(os.Stderr, "Add it to config.toml as [http] password_hash.")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "jukebox password hashing")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: hashpw")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Prompts for a password twice and prints its bcrypt hash")
	fmt.Fprintln(w, "for the password_hash key of the [http] section.")
}

// prompt asks for the password and its confirmation on w and returns the
// bcrypt hash.
func prompt(w io.Writer, read readFunc, cost int) ([]byte, error) {
	fmt.Fprint(w, "New Password: ")
	password, err := read()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(w, "Confirm Password: ")
	confirm, err := read()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return hashPassword(password, confirm, cost)
}

func hashPassword(password, confirm []byte, cost int) ([]byte, error) {
	if !bytes.Equal(password, confirm) {
		return nil, errMismatch
	}
	if len(password) < minPasswordLength {
		return nil, errTooShort
	}
	return bcrypt.GenerateFromPassword(password, cost)
}
