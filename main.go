package main

import "github.com/frahmantamala/course-payments/cmd"

func main() {
	cmd.Execute()
}
