package main

import "memodesk/cmd"

func main() {
	cmd.Execute()
}
