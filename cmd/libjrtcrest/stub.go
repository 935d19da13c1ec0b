//go:build !cgo

// Without cgo there is no C ABI to export; build with CGO_ENABLED=1 and
// -buildmode=c-shared.
package main

func main() {}
