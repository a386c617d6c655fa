// Package valuefmt renders a compiled declaration's runtime value for
// display, shared by "excc -repl" and a plain single-file/batch compile's
// result printer so both report values identically.
package valuefmt

import (
	"fmt"
	"unsafe"

	"exc/internal/mathext"
)

// FormatValue renders the value at ptr for display, dispatching on the
// declaration's type name the same way internal/builtins/internal/mathext
// register their Go-side representations: a fixed, small type set, so a
// name switch is simpler and safer than reflecting over the LLVM type.
// Any type name outside that set (a host module the caller wasn't told
// about) falls back to printing the raw pointer rather than guessing at
// its layout.
func FormatValue(typeName string, ptr unsafe.Pointer) string {
	switch typeName {
	case "Bool":
		return fmt.Sprintf("%t", *(*bool)(ptr))
	case "Integer":
		return fmt.Sprintf("%d", *(*int64)(ptr))
	case "Float":
		return fmt.Sprintf("%g", *(*float64)(ptr))
	case "String":
		return fmt.Sprintf("%q", *(*string)(ptr))
	case "Complex":
		c := (*mathext.Complex)(ptr)
		return fmt.Sprintf("%g+%gi", c.Re, c.Im)
	default:
		return fmt.Sprintf("<%s @ %p>", typeName, ptr)
	}
}
