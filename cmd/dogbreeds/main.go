package main

import cmd "github.com/rohmanhakim/dogbreeds/internal/cli"

func main() {
	cmd.Execute()
}
