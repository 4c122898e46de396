//go:build !componentdev

package protocol

const strict = false
