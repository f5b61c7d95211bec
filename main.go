package main

import "lochat/cmd"

func main() {
	cmd.Execute()
}
