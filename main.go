package main

import "github.com/agerpk/estructural/cmd"

func main() {
	cmd.Execute()
}
