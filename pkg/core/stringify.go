package core

import (
	"fmt"
	"time"
)

// TimestampLayout is the canonical UTC text form for timestamps. Lexicographic
// order of the rendered text matches chronological order by construction.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Stringify renders a value into its canonical index text form, or nil for
// nil values (stored as SQL null). Integers are zero-padded to 16 digits so
// that lexicographic ordering of the text matches numeric ordering; negative
// integers and integers wider than 16 digits are not correctly ordered under
// this scheme.
func Stringify(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return fmt.Sprintf("%016d", x)
	case int8:
		return fmt.Sprintf("%016d", x)
	case int16:
		return fmt.Sprintf("%016d", x)
	case int32:
		return fmt.Sprintf("%016d", x)
	case int64:
		return fmt.Sprintf("%016d", x)
	case uint:
		return fmt.Sprintf("%016d", x)
	case uint8:
		return fmt.Sprintf("%016d", x)
	case uint16:
		return fmt.Sprintf("%016d", x)
	case uint32:
		return fmt.Sprintf("%016d", x)
	case uint64:
		return fmt.Sprintf("%016d", x)
	case time.Time:
		return x.UTC().Format(TimestampLayout)
	default:
		return fmt.Sprint(v)
	}
}
