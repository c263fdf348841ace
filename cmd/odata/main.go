// Command odata builds OData command text and sends it to a service.
package main

import (
	"fmt"
	"os"

	"github.com/PDNemesis/Simple.OData.Client/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
