package main

import "photoorganizer/cmd"

func main() {
	cmd.Execute()
}
