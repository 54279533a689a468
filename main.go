package main

import "santool/cmd"

func main() {
	cmd.Execute()
}
