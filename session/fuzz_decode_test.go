package session

import "testing"

// FuzzDecode exercises the record decoder with arbitrary inputs.
// Goal: no panics; failures always yield the sentinel.
func FuzzDecode(f *testing.F) {
	if encoded, err := Encode(testPair()); err == nil {
		f.Add(encoded)
		f.Add(encoded[:len(encoded)/2])
	}
	f.Add([]byte{})
	f.Add([]byte("null"))
	f.Add([]byte("invalid-json"))
	f.Add([]byte(`{"expiresIn":1e309}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		pair, err := Decode(data)
		if err != nil && pair != Sentinel() {
			t.Fatalf("decode error must return sentinel, got %+v", pair)
		}
	})
}
