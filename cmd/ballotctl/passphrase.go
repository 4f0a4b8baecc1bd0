package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"ballot-backend/config"
	"ballot-backend/encryption"
)

const (
	pepperEnvVar     = "BALLOT_PEPPER"
	pepperFileEnvVar = "BALLOT_PEPPER_FILE"
)

// loadPepper reads the pepper from BALLOT_PEPPER, then BALLOT_PEPPER_FILE,
// then an interactive prompt.
func loadPepper() (encryption.Pepper, error) {
	raw, err := readPepper()
	if err != nil {
		return encryption.Pepper{}, err
	}
	defer encryption.Wipe(raw)
	return encryption.NewPepper(raw)
}

// readPepper returns the same bytes the server would load from the same
// environment.
func readPepper() ([]byte, error) {
	if env := os.Getenv(pepperEnvVar); env != "" {
		return []byte(env), nil
	}
	if path := os.Getenv(pepperFileEnvVar); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", pepperFileEnvVar, err)
		}
		defer encryption.Wipe(data)
		return config.TrimPepperFile(string(data)), nil
	}
	return promptPepper()
}

// promptPepper asks for the pepper without echo, on stdin when it is a
// terminal and on the controlling terminal when stdin is piped.
func promptPepper() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return nil, fmt.Errorf("no terminal to prompt on: set %s or %s", pepperEnvVar, pepperFileEnvVar)
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	fmt.Fprint(os.Stderr, "Pepper: ")
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(fd)
}
