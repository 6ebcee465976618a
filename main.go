package main

import "TemplePlayer/cmd"

func main() {
	cmd.Execute()
}
