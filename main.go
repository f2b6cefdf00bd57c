package main

import "github.com/KaramelBytes/datalicious/cmd"

func main() {
	cmd.Execute()
}
