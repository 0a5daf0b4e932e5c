package utils

import "github.com/goccy/go-json"

// StructToBytes serializes s with the shared JSON codec.
func StructToBytes(s interface{}) ([]byte, error) {
	return json.Marshal(s)
}

// BytesToStruct deserializes data into s with the shared JSON codec.
func BytesToStruct(data []byte, s interface{}) error {
	return json.Unmarshal(data, s)
}
