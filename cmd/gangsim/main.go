package main

import "github.com/andrescamacho/gangsim/internal/adapters/cli"

func main() {
	cli.Execute()
}
