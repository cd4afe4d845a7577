package main

import "github.com/312-dev/eclosion-for-monarch-sub000/cmd"

func main() {
	cmd.Execute()
}
