package main

import "github.com/OpenTraceLab/OpenTraceWave/cmd/otw/cmd"

func main() {
	cmd.Execute()
}
