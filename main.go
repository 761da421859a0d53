package main

import "github.com/daruyar/daruyar_backend/cmd"

func main() {
	cmd.Execute()
}
