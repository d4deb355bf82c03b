package main

import "github.com/smartinstall/field-reports/cmd"

func main() {
	cmd.Execute()
}
