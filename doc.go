// Package minitest is a small self-registering test framework for programs
// that carry their own test cases.
//
// Test cases register themselves during package initialization:
//
//	var _ = minitest.Case("parser accepts empty input", func(t *minitest.T) {
//		t.AssertNoError(parse(""))
//	})
//
// The program hands its arguments to the framework before doing anything else:
//
//	func main() {
//		minitest.Main()
//		// regular program logic
//	}
//
// Main returns when no minitest directive is present, so the same binary can be
// shipped and tested. Run with --minitest-help to see the directives.
package minitest
