package codec

import "reflect"

// NullValue marks a cache slot that deliberately holds an absent value, as
// opposed to a key that is not present at all. It always encodes as an object
// whose only field is the discriminator.
type NullValue struct{}

var nullValueType = reflect.TypeOf(NullValue{})

// IsNull reports whether v is the Null Sentinel.
func IsNull(v any) bool {
	switch v.(type) {
	case NullValue, *NullValue:
		return true
	}
	return false
}
