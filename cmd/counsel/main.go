// counsel answers KCET counseling queries from the command line against the
// same dataset and stores the workers use.
package main

import (
	"os"

	"seatsathi-workers/cmd/counsel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
