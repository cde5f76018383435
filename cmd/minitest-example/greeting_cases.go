package main

import (
	"strings"

	"github.com/Atliac/minitest"
)

var (
	_ = minitest.Case("greeting uses the name", func(t *minitest.T) {
		t.AssertTrue(greeting("gopher") == "Hello, gopher!")
	})

	_ = minitest.Case("greeting falls back to world", func(t *minitest.T) {
		t.ExpectTrue(greeting("") == "Hello, world!")
		t.ExpectTrue(greeting("   ") == "Hello, world!", "blank names")
	})

	_ = minitest.Case("greeting keeps inner spaces", func(t *minitest.T) {
		got := greeting(" go pher ")
		t.ExpectTrue(strings.Contains(got, "go pher"), "got ", got)
	})
)
