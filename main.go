package main

import "requitec/cmd"

func main() {
	cmd.Execute()
}
