// Command stgov governs the service type vocabulary used to classify
// requests and offers.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/stgov/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands that already rendered their failure return an ExitError
		// whose message repeats it; print only the rest.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
