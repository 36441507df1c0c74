package badsteps

// BadKeyword uses a keyword the scanner does not know.
// @tursu sometimes `the moon is full`
func BadKeyword() {}
