package main

import "github.com/rsdoclab/rsdoc/cmd"

func main() {
	cmd.Execute()
}
