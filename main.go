// The main package for the ecfr-analyzer executable.
package main

import (
	"github.com/vitran/ecfr-analyzer/cmd"
)

func main() {
	cmd.Execute()
}
