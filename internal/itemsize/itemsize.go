// Package itemsize computes the serialized size of DynamoDB items.
package itemsize

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// WriteUnit is the number of item bytes covered by one write capacity unit.
const WriteUnit = 1024

// Size returns the serialized size of an item in bytes, following the
// DynamoDB item-size accounting rules: attribute names count at their
// UTF-8 byte length, scalars at their encoded length, and lists/maps
// carry 3 bytes of overhead plus 1 byte per element.
func Size(item map[string]types.AttributeValue) int {
	var sum int
	for name, value := range item {
		sum += len(name)
		sum += valueSize(value)
	}
	return sum
}

// WriteUnits returns the number of write capacity units a single write of
// size bytes consumes (rounded up to the next WriteUnit boundary).
func WriteUnits(size int) int {
	if size <= 0 {
		return 0
	}
	return (size + WriteUnit - 1) / WriteUnit
}

func valueSize(value types.AttributeValue) int {
	switch v := value.(type) {
	case *types.AttributeValueMemberS:
		return len(v.Value)
	case *types.AttributeValueMemberN:
		return len(v.Value)
	case *types.AttributeValueMemberB:
		return len(v.Value)
	case *types.AttributeValueMemberBOOL:
		return 1
	case *types.AttributeValueMemberNULL:
		return 1
	case *types.AttributeValueMemberSS:
		var sum int
		for _, s := range v.Value {
			sum += len(s)
		}
		return sum
	case *types.AttributeValueMemberNS:
		var sum int
		for _, n := range v.Value {
			sum += len(n)
		}
		return sum
	case *types.AttributeValueMemberBS:
		var sum int
		for _, b := range v.Value {
			sum += len(b)
		}
		return sum
	case *types.AttributeValueMemberL:
		sum := 3
		for _, elem := range v.Value {
			sum += 1 + valueSize(elem)
		}
		return sum
	case *types.AttributeValueMemberM:
		sum := 3
		for name, elem := range v.Value {
			sum += 1 + len(name) + valueSize(elem)
		}
		return sum
	default:
		return 0
	}
}
