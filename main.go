package main

import "github.com/agentic-research/proctest/cmd"

func main() {
	cmd.Execute()
}
