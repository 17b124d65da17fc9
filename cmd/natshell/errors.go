package main

// usageError marks an invalid CLI invocation; main() maps it to exit
// code 2 rather than the generic 1 used for every other failure.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if _, ok := err.(*usageError); ok {
		return 2
	}
	return 1
}
