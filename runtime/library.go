package runtime

// preludeSources are evaluated into the builtin frame of every runtime
// interpreter.
var preludeSources = []string{
	`
fn abs(x) {
    if x < 0 { return -x }
    return x
}
`,
	`
fn min(a, b) {
    if b < a { return b }
    return a
}
`,
	`
fn max(a, b) {
    if b > a { return b }
    return a
}
`,
}
