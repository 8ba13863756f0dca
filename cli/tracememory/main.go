package main

import (
	"os"

	tracememorycmder "github.com/papercomputeco/tracememory/cmd/tracememory"
)

func main() {
	cmd := tracememorycmder.NewTraceMemoryCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
