//go:build !prismdebug

package glgpu

func checkError(string) {}
