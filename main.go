package main

import "github.com/rleal/face-attendance/cmd"

func main() {
	cmd.Execute()
}
