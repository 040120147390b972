package sources

import "fmt"

type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	return fmt.Sprintf("enumerator panicked: %v", e.value)
}
