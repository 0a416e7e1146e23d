package main

import "github.com/ejg/cestas/cmd/storectl/commands"

func main() {
	commands.Execute()
}
