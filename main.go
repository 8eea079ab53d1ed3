package main

import "github.com/alexiusacademia/gorotor/cmd"

func main() {
	cmd.Execute()
}
