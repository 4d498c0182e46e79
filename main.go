package main

import "github.com/pitbox/race-intel-go/cmd"

func main() {
	cmd.Execute()
}
