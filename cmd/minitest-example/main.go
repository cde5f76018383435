// Command minitest-example is a program that carries its own test cases.
//
// Run without arguments it greets the user. With a minitest directive it
// lists or runs its test cases instead:
//
//	minitest-example --minitest-list-test-cases
//	minitest-example --minitest-run-test-case "greeting uses the name"
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Atliac/minitest"
)

func main() {
	minitest.Main()

	name := "world"
	if len(os.Args) > 1 {
		name = strings.Join(os.Args[1:], " ")
	}
	fmt.Println(greeting(name))
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "world"
	}
	return "Hello, " + name + "!"
}
