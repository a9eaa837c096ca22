package main

import "github.com/ralphlabs/ralph/cmd"

func main() {
	cmd.Execute()
}
