// main is the entry point for the tiercache CLI.
package main

import (
	"os"

	"github.com/huangsam/tiercache/cmd"
	"github.com/huangsam/tiercache/internal/contract"
)

func main() {
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.Logger().Error("command failed", "err", err)
		os.Exit(1)
	}
}
