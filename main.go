package main

import "github.com/naka-gawa/pr-size-audit/cmd"

func main() {
	cmd.Execute()
}
