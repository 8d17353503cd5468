package main

import "github.com/frahmantamala/employee-directory/cmd"

func main() {
	cmd.Execute()
}
