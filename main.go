package main

import "github.com/Tiliavir/trivial-timecard/cmd"

func main() {
	cmd.Execute()
}
