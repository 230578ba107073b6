// Точка входа Inner-Peace: консольные команды и HTTP API.
package main

import (
	"os"

	"github.com/bigkaa/innerpeace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
