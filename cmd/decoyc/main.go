package main

import "decoyc/pkg/cmd"

func main() {
	cmd.Execute()
}
