package vkrender

import (
	"unsafe"
)

const end = "\x00"
const endChar byte = '\x00'

// ToBytes will take an unsafe.Pointer and length in bytes and convert it
// to a byte slice
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	if lenInBytes == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), lenInBytes)
}

// structBytes views the memory of *v as bytes. v must not contain pointers.
func structBytes[T any](v *T) []byte {
	return ToBytes(unsafe.Pointer(v), int(unsafe.Sizeof(*v)))
}

// sliceBytes views the backing array of s as bytes. T must not contain pointers.
func sliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return ToBytes(unsafe.Pointer(&s[0]), len(s)*int(unsafe.Sizeof(zero)))
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	for i := range list {
		list[i] = safeString(list[i])
	}
	return list
}
