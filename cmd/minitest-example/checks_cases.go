package main

import (
	"errors"
	"strconv"

	"github.com/Atliac/minitest"
	"github.com/Atliac/minitest/pkg/check"
)

var errParse = errors.New("parse error")

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, errParse
	}
	return n, nil
}

var (
	_ = minitest.Case("basic checks", func(t *minitest.T) {
		t.ExpectTrue(true)
		t.ExpectTrue(true, "msg")
		t.ExpectFalse(false)
		t.ExpectPanics(func() { panic("boom") })
		t.ExpectNotPanics(func() {})

		t.AssertTrue(true)
		t.AssertFalse(false, "msg")
		t.AssertPanics(func() { panic(errParse) })
		check.AssertPanicsWith[error](t, func() { panic(errParse) })
		t.AssertNotPanics(func() {})

		t.Info()
		t.Info("msg 1")
		t.Info("msg 1", ",msg 2", ",msg 3")
	})

	_ = minitest.Case("port parsing", func(t *minitest.T) {
		port, err := parsePort("8080")
		t.AssertNoError(err)
		t.ExpectTrue(port == 8080)

		_, err = parsePort("99999")
		t.ExpectTrue(errors.Is(err, errParse), "out of range ports are rejected")
	})

	_ = minitest.Case("name with space and () and {} and [] and <>", func(t *minitest.T) {})

	_ = minitest.Case("runs in silent mode under ctest", func(t *minitest.T) {
		t.Info("silent: ", t.Silent())
	})
)
