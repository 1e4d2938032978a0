//go:build debug

package metrics

const debugBuild = true
