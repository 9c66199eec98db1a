package main

import "workflow-studio/api/cmd"

func main() {
	cmd.Execute()
}
