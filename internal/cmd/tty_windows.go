//go:build windows

package cmd

import (
	"errors"
	"os"
)

func checkTTY() error {
	return errors.New("interactive search is not supported on Windows")
}

func checkTERM() error {
	return nil
}

func openTTY() (*os.File, error) {
	return nil, errors.New("interactive search is not supported on Windows")
}
